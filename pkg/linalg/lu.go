package linalg

import (
	mdwerror "github.com/msto63/laplace/foundation/core/error"
)

// LU is the factorization P·A = L·U of a square matrix with partial pivoting
type LU[T Scalar[T]] struct {
	lu   *Dense[T]
	piv  []int
	sign int
}

// FactorizeLU computes the LU factorization of the square matrix a. a is not
// modified. A zero pivot yields an error matching ErrSingular.
func FactorizeLU[T Scalar[T]](a *Dense[T]) (*LU[T], error) {
	if a.rows != a.cols {
		return nil, mdwerror.Newf("LU needs a square matrix, got %d×%d", a.rows, a.cols).
			WithCode(mdwerror.CodeDimensionMismatch).
			WithOperation("linalg.FactorizeLU")
	}
	n := a.rows
	m := a.Clone()
	piv := make([]int, n)
	for i := range piv {
		piv[i] = i
	}
	sign := 1

	for c := 0; c < n; c++ {
		p := c
		best := m.data[c*n+c].Abs()
		for r := c + 1; r < n; r++ {
			if v := m.data[r*n+c].Abs(); v.Cmp(best) > 0 {
				p, best = r, v
			}
		}
		if best.Sign() == 0 {
			return nil, mdwerror.Wrap(ErrSingular, "zero pivot").
				WithDetail("column", c).
				WithOperation("linalg.FactorizeLU")
		}
		if p != c {
			for j := 0; j < n; j++ {
				m.data[c*n+j], m.data[p*n+j] = m.data[p*n+j], m.data[c*n+j]
			}
			piv[c], piv[p] = piv[p], piv[c]
			sign = -sign
		}

		pivot := m.data[c*n+c]
		for r := c + 1; r < n; r++ {
			f := m.data[r*n+c].Quo(pivot)
			m.data[r*n+c] = f
			if f.Sign() == 0 {
				continue
			}
			for j := c + 1; j < n; j++ {
				m.data[r*n+j] = m.data[r*n+j].Sub(f.Mul(m.data[c*n+j]))
			}
		}
	}
	return &LU[T]{lu: m, piv: piv, sign: sign}, nil
}

// Solve returns x with A·x = b
func (f *LU[T]) Solve(b []T) ([]T, error) {
	n := f.lu.rows
	if len(b) != n {
		return nil, mdwerror.Newf("right-hand side of length %d does not fit %d×%d system", len(b), n, n).
			WithCode(mdwerror.CodeDimensionMismatch).
			WithOperation("linalg.LU.Solve")
	}
	x := make([]T, n)
	for i, p := range f.piv {
		x[i] = b[p]
	}
	d := f.lu.data
	for i := 0; i < n; i++ {
		s := x[i]
		for j := 0; j < i; j++ {
			s = s.Sub(d[i*n+j].Mul(x[j]))
		}
		x[i] = s
	}
	for i := n - 1; i >= 0; i-- {
		s := x[i]
		for j := i + 1; j < n; j++ {
			s = s.Sub(d[i*n+j].Mul(x[j]))
		}
		x[i] = s.Quo(d[i*n+i])
	}
	return x, nil
}

// Det returns the determinant of the factorized matrix; zero for an empty one
func (f *LU[T]) Det() T {
	n := f.lu.rows
	if n == 0 {
		var zero T
		return zero
	}
	det := f.lu.data[0]
	for i := 1; i < n; i++ {
		det = det.Mul(f.lu.data[i*n+i])
	}
	if f.sign < 0 {
		det = det.Neg()
	}
	return det
}

// Solve solves the square system a·x = b by LU factorization
func Solve[T Scalar[T]](a *Dense[T], b []T) ([]T, error) {
	f, err := FactorizeLU(a)
	if err != nil {
		return nil, err
	}
	return f.Solve(b)
}
