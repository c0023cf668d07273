package linalg

import (
	"errors"
	"math"
	"testing"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
)

func f64s(xs ...float64) []Float64 {
	out := make([]Float64, len(xs))
	for i, x := range xs {
		out[i] = Float64(x)
	}
	return out
}

func TestDenseBasics(t *testing.T) {
	m := NewDense(2, 3, f64s(1, 2, 3, 4, 5, 6))
	if r, c := m.Dims(); r != 2 || c != 3 {
		t.Fatalf("Dims() = %d, %d", r, c)
	}
	if got := m.At(1, 2); got != 6 {
		t.Errorf("At(1, 2) = %v, want 6", got)
	}

	tr := m.Transpose()
	if r, c := tr.Dims(); r != 3 || c != 2 {
		t.Fatalf("Transpose dims = %d, %d", r, c)
	}
	if got := tr.At(2, 0); got != 3 {
		t.Errorf("Transpose().At(2, 0) = %v, want 3", got)
	}

	c := m.Clone()
	c.Set(0, 0, 42)
	if m.At(0, 0) != 1 {
		t.Error("Clone shares storage with the original")
	}

	row := m.Row(1)
	row[0] = 99
	if m.At(1, 0) != 4 {
		t.Error("Row returned a view instead of a copy")
	}
	if got := m.Col(1); got[0] != 2 || got[1] != 5 {
		t.Errorf("Col(1) = %v", got)
	}
}

func TestDensePanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"length mismatch", func() { NewDense(2, 2, f64s(1, 2, 3)) }},
		{"negative", func() { NewDense[Float64](-1, 2, nil) }},
		{"row out of range", func() { NewDense[Float64](2, 2, nil).At(2, 0) }},
		{"col out of range", func() { NewDense[Float64](2, 2, nil).Set(0, -1, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := NewDense(2, 2, f64s(1, 2, 3, 4))
	b := NewDense(2, 2, f64s(5, 6, 7, 8))

	p, err := Mul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := f64s(19, 22, 43, 50)
	for i, w := range want {
		if p.data[i] != w {
			t.Errorf("Mul()[%d] = %v, want %v", i, p.data[i], w)
		}
	}

	s, _ := Add(a, b)
	d, _ := Sub(b, a)
	e, _ := MulElem(a, b)
	for i := range a.data {
		if s.data[i] != a.data[i]+b.data[i] || d.data[i] != b.data[i]-a.data[i] || e.data[i] != a.data[i]*b.data[i] {
			t.Errorf("elementwise mismatch at %d", i)
		}
	}

	if got := a.Scale(2).At(1, 1); got != 8 {
		t.Errorf("Scale(2).At(1, 1) = %v", got)
	}
	sq := a.Apply(func(_, _ int, v Float64) Float64 { return v * v })
	if got := sq.At(1, 0); got != 9 {
		t.Errorf("Apply square At(1, 0) = %v", got)
	}

	y, err := a.MulVec(f64s(1, 1))
	if err != nil || y[0] != 3 || y[1] != 7 {
		t.Errorf("MulVec = %v, %v", y, err)
	}

	id := Identity(3, Float64Traits{})
	if id.At(1, 1) != 1 || id.At(0, 1) != 0 {
		t.Error("Identity is wrong")
	}
}

func TestShapeErrors(t *testing.T) {
	a := NewDense[Float64](2, 3, nil)
	b := NewDense[Float64](2, 2, nil)

	_, err := Mul(a, b)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Mul error = %v, want dimension mismatch", err)
	}
	if _, err := Add(a, b); !mdwerror.HasCode(err, mdwerror.CodeDimensionMismatch) {
		t.Errorf("Add error = %v", err)
	}
	if _, err := a.MulVec(f64s(1, 2)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("MulVec error = %v", err)
	}
}

func TestNorms(t *testing.T) {
	if got := Norm2(f64s(3, 4)); got != 5 {
		t.Errorf("Norm2(3, 4) = %v", got)
	}
	// would overflow without scaling
	big := Float64(1e300)
	if got := Norm2([]Float64{big, big}); math.Abs(float64(got)/1e300-math.Sqrt2) > 1e-15 {
		t.Errorf("Norm2 overflowed: %v", got)
	}
	if got := Norm2[Float64](nil); got != 0 {
		t.Errorf("Norm2(nil) = %v", got)
	}
	if got := MaxAbs(f64s(1, -7, 3)); got != 7 {
		t.Errorf("MaxAbs = %v", got)
	}
	if got := Dot(f64s(1, 2, 3), f64s(4, 5)); got != 14 {
		t.Errorf("Dot with short operand = %v", got)
	}
	if got := Float64s(f64s(1.5, -2)); got[0] != 1.5 || got[1] != -2 {
		t.Errorf("Float64s = %v", got)
	}
}
