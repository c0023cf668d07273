package linalg

import (
	"fmt"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
)

// ErrDimensionMismatch matches shape errors under errors.Is
var ErrDimensionMismatch = mdwerror.New("dimension mismatch").WithCode(mdwerror.CodeDimensionMismatch)

// ErrSingular matches factorizations of singular matrices under errors.Is
var ErrSingular = mdwerror.New("matrix is singular").WithCode(mdwerror.CodeSingularMatrix)

// Dense is a row-major dense matrix
type Dense[T Scalar[T]] struct {
	rows, cols int
	data       []T
}

// NewDense creates an r×c matrix backed by data, which is used directly. A
// nil data allocates a zero matrix. It panics if len(data) != r*c.
func NewDense[T Scalar[T]](r, c int, data []T) *Dense[T] {
	if r < 0 || c < 0 {
		panic("linalg: negative dimension")
	}
	if data == nil {
		data = make([]T, r*c)
	}
	if len(data) != r*c {
		panic(fmt.Sprintf("linalg: data length %d does not match %d×%d", len(data), r, c))
	}
	return &Dense[T]{rows: r, cols: c, data: data}
}

// Identity returns the n×n identity matrix
func Identity[T Scalar[T]](n int, tr Traits[T]) *Dense[T] {
	m := NewDense[T](n, n, nil)
	one := tr.FromFloat64(1)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = one
	}
	return m
}

// Dims returns the number of rows and columns
func (m *Dense[T]) Dims() (r, c int) { return m.rows, m.cols }

// At returns the element at row i, column j
func (m *Dense[T]) At(i, j int) T {
	m.check(i, j)
	return m.data[i*m.cols+j]
}

// Set stores v at row i, column j
func (m *Dense[T]) Set(i, j int, v T) {
	m.check(i, j)
	m.data[i*m.cols+j] = v
}

func (m *Dense[T]) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("linalg: index (%d, %d) out of range %d×%d", i, j, m.rows, m.cols))
	}
}

// Clone returns a deep copy
func (m *Dense[T]) Clone() *Dense[T] {
	data := make([]T, len(m.data))
	copy(data, m.data)
	return &Dense[T]{rows: m.rows, cols: m.cols, data: data}
}

// Row returns a copy of row i
func (m *Dense[T]) Row(i int) []T {
	m.check(i, 0)
	row := make([]T, m.cols)
	copy(row, m.data[i*m.cols:(i+1)*m.cols])
	return row
}

// Col returns a copy of column j
func (m *Dense[T]) Col(j int) []T {
	m.check(0, j)
	col := make([]T, m.rows)
	for i := range col {
		col[i] = m.data[i*m.cols+j]
	}
	return col
}

// Transpose returns the transpose as a new matrix
func (m *Dense[T]) Transpose() *Dense[T] {
	t := NewDense[T](m.cols, m.rows, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			t.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return t
}

// Mul returns the product a·b
func Mul[T Scalar[T]](a, b *Dense[T]) (*Dense[T], error) {
	if a.cols != b.rows {
		return nil, shapeError("Mul", a, b)
	}
	p := NewDense[T](a.rows, b.cols, nil)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < b.cols; j++ {
			var s T
			for k := 0; k < a.cols; k++ {
				s = s.Add(a.data[i*a.cols+k].Mul(b.data[k*b.cols+j]))
			}
			p.data[i*b.cols+j] = s
		}
	}
	return p, nil
}

// MulVec returns m·x
func (m *Dense[T]) MulVec(x []T) ([]T, error) {
	if len(x) != m.cols {
		return nil, mdwerror.Newf("vector of length %d does not fit %d×%d matrix", len(x), m.rows, m.cols).
			WithCode(mdwerror.CodeDimensionMismatch).
			WithOperation("linalg.MulVec")
	}
	y := make([]T, m.rows)
	for i := range y {
		y[i] = Dot(m.data[i*m.cols:(i+1)*m.cols], x)
	}
	return y, nil
}

// Add returns a+b elementwise
func Add[T Scalar[T]](a, b *Dense[T]) (*Dense[T], error) {
	return elementwise("Add", a, b, func(x, y T) T { return x.Add(y) })
}

// Sub returns a-b elementwise
func Sub[T Scalar[T]](a, b *Dense[T]) (*Dense[T], error) {
	return elementwise("Sub", a, b, func(x, y T) T { return x.Sub(y) })
}

// MulElem returns the elementwise product of a and b
func MulElem[T Scalar[T]](a, b *Dense[T]) (*Dense[T], error) {
	return elementwise("MulElem", a, b, func(x, y T) T { return x.Mul(y) })
}

// Scale returns s·m
func (m *Dense[T]) Scale(s T) *Dense[T] {
	r := m.Clone()
	for i := range r.data {
		r.data[i] = r.data[i].Mul(s)
	}
	return r
}

// Apply returns a matrix with fn applied to every element
func (m *Dense[T]) Apply(fn func(i, j int, v T) T) *Dense[T] {
	r := m.Clone()
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			r.data[i*m.cols+j] = fn(i, j, m.data[i*m.cols+j])
		}
	}
	return r
}

func elementwise[T Scalar[T]](op string, a, b *Dense[T], fn func(x, y T) T) (*Dense[T], error) {
	if a.rows != b.rows || a.cols != b.cols {
		return nil, shapeError(op, a, b)
	}
	r := NewDense[T](a.rows, a.cols, nil)
	for i := range r.data {
		r.data[i] = fn(a.data[i], b.data[i])
	}
	return r, nil
}

func shapeError[T Scalar[T]](op string, a, b *Dense[T]) error {
	return mdwerror.Newf("%s: shapes %d×%d and %d×%d do not fit", op, a.rows, a.cols, b.rows, b.cols).
		WithCode(mdwerror.CodeDimensionMismatch).
		WithOperation("linalg." + op)
}

// Dot returns Σ x_i·y_i; the shorter length wins
func Dot[T Scalar[T]](x, y []T) T {
	var s T
	for i := 0; i < len(x) && i < len(y); i++ {
		s = s.Add(x[i].Mul(y[i]))
	}
	return s
}

// Norm2 returns the Euclidean norm of x, scaled to avoid overflow
func Norm2[T Scalar[T]](x []T) T {
	var scale T
	for _, v := range x {
		scale = maxOf(scale, v.Abs())
	}
	if scale.Sign() == 0 {
		return scale
	}
	var s T
	for _, v := range x {
		q := v.Quo(scale)
		s = s.Add(q.Mul(q))
	}
	return s.Sqrt().Mul(scale)
}

// MaxAbs returns max |x_i|, or zero for an empty slice
func MaxAbs[T Scalar[T]](x []T) T {
	var m T
	for _, v := range x {
		m = maxOf(m, v.Abs())
	}
	return m
}

// Float64s narrows x to float64, for reporting only
func Float64s[T Scalar[T]](x []T) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v.Float64()
	}
	return out
}
