package linalg

import (
	"sort"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
)

// maxSweeps bounds the Jacobi sweeps. Convergence is quadratic once the
// columns are nearly orthogonal, so a handful of sweeps is typical.
const maxSweeps = 80

// SVD is the thin singular value decomposition A = U·diag(S)·Vᵀ of an m×n
// matrix with r = min(m, n): U is m×r, V is n×r and S is descending.
type SVD[T Scalar[T]] struct {
	U *Dense[T]
	S []T
	V *Dense[T]
}

// FactorizeSVD computes the SVD of a with the one-sided Jacobi method,
// which keeps high relative accuracy in the small singular values.
func FactorizeSVD[T Scalar[T]](a *Dense[T], tr Traits[T]) (*SVD[T], error) {
	if a.rows < a.cols {
		t, err := FactorizeSVD(a.Transpose(), tr)
		if err != nil {
			return nil, err
		}
		return &SVD[T]{U: t.V, S: t.S, V: t.U}, nil
	}

	m, n := a.rows, a.cols
	// work on columns: w[j] is column j of A, v[j] column j of V
	w := make([][]T, n)
	v := make([][]T, n)
	one := tr.FromFloat64(1)
	for j := 0; j < n; j++ {
		w[j] = a.Col(j)
		v[j] = make([]T, n)
		v[j][j] = one
	}

	tol := tr.Epsilon().Mul(tr.FromFloat64(float64(m)))
	converged := false
	for sweep := 0; sweep < maxSweeps && !converged; sweep++ {
		converged = true
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				alpha := Dot(w[p], w[p])
				beta := Dot(w[q], w[q])
				gamma := Dot(w[p], w[q])
				if gamma.Sign() == 0 {
					continue
				}
				if gamma.Abs().Cmp(tol.Mul(alpha.Sqrt()).Mul(beta.Sqrt())) <= 0 {
					continue
				}
				converged = false
				c, s := jacobiRotation(alpha, beta, gamma, one)
				rotate(w[p], w[q], c, s)
				rotate(v[p], v[q], c, s)
			}
		}
	}
	if !converged {
		return nil, mdwerror.Newf("Jacobi SVD did not converge in %d sweeps", maxSweeps).
			WithCode(mdwerror.CodeConvergenceFailed).
			WithOperation("linalg.FactorizeSVD")
	}

	sigma := make([]T, n)
	for j := range w {
		sigma[j] = Norm2(w[j])
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return sigma[order[i]].Cmp(sigma[order[j]]) > 0 })

	res := &SVD[T]{U: NewDense[T](m, n, nil), S: make([]T, n), V: NewDense[T](n, n, nil)}
	for k, j := range order {
		res.S[k] = sigma[j]
		for i := 0; i < m; i++ {
			if sigma[j].Sign() != 0 {
				res.U.data[i*n+k] = w[j][i].Quo(sigma[j])
			}
		}
		for i := 0; i < n; i++ {
			res.V.data[i*n+k] = v[j][i]
		}
	}
	return res, nil
}

// jacobiRotation returns the rotation that orthogonalizes two columns with
// squared norms alpha, beta and inner product gamma.
func jacobiRotation[T Scalar[T]](alpha, beta, gamma, one T) (c, s T) {
	two := one.Add(one)
	zeta := beta.Sub(alpha).Quo(two.Mul(gamma))
	az := zeta.Abs()
	var t T
	switch {
	case az.Sign() == 0:
		t = one
	case az.Cmp(one) > 0:
		// |ζ|·(1 + sqrt(1 + 1/ζ²)) avoids squaring a huge ζ
		r := one.Quo(az)
		t = one.Quo(az.Mul(one.Add(one.Add(r.Mul(r)).Sqrt())))
	default:
		t = one.Quo(az.Add(one.Add(az.Mul(az)).Sqrt()))
	}
	if zeta.Sign() < 0 {
		t = t.Neg()
	}
	c = one.Quo(one.Add(t.Mul(t)).Sqrt())
	s = c.Mul(t)
	return c, s
}

func rotate[T Scalar[T]](x, y []T, c, s T) {
	for i := range x {
		xi, yi := x[i], y[i]
		x[i] = c.Mul(xi).Sub(s.Mul(yi))
		y[i] = s.Mul(xi).Add(c.Mul(yi))
	}
}

// Values returns a copy of the singular values in descending order
func (f *SVD[T]) Values() []T {
	out := make([]T, len(f.S))
	copy(out, f.S)
	return out
}

// Cond returns the 2-norm condition number σmax/σmin
func (f *SVD[T]) Cond() T {
	return f.S[0].Quo(f.S[len(f.S)-1])
}

// Rank returns the number of singular values above rcond·σmax
func (f *SVD[T]) Rank(rcond T) int {
	if len(f.S) == 0 {
		return 0
	}
	cut := rcond.Mul(f.S[0])
	r := 0
	for _, s := range f.S {
		if s.Cmp(cut) > 0 {
			r++
		}
	}
	return r
}

// SolveLS returns the minimum-norm least-squares solution of A·x = b,
// ignoring singular values at or below rcond·σmax.
func (f *SVD[T]) SolveLS(b []T, rcond T) ([]T, error) {
	m, r := f.U.Dims()
	if len(b) != m {
		return nil, mdwerror.Newf("right-hand side of length %d does not fit %d rows", len(b), m).
			WithCode(mdwerror.CodeDimensionMismatch).
			WithOperation("linalg.SVD.SolveLS")
	}
	n, _ := f.V.Dims()
	x := make([]T, n)
	rank := f.Rank(rcond)
	for k := 0; k < rank; k++ {
		coef := Dot(f.U.Col(k), b).Quo(f.S[k])
		for i := 0; i < n; i++ {
			x[i] = x[i].Add(coef.Mul(f.V.data[i*r+k]))
		}
	}
	return x, nil
}

// LeastSquares solves min ‖a·x − b‖ through the SVD with the cutoff
// rcond = ε·max(m, n).
func LeastSquares[T Scalar[T]](a *Dense[T], b []T, tr Traits[T]) ([]T, error) {
	f, err := FactorizeSVD(a, tr)
	if err != nil {
		return nil, err
	}
	m, n := a.Dims()
	size := m
	if n > size {
		size = n
	}
	return f.SolveLS(b, tr.Epsilon().Mul(tr.FromFloat64(float64(size))))
}
