package minimax

import (
	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/pkg/quad"
)

// Interval is the approximation domain [Ymin, Ymax] with 0 < Ymin < Ymax
type Interval struct {
	Ymin quad.Float
	Ymax quad.Float
}

// NewInterval validates the bounds of an approximation interval
func NewInterval(ymin, ymax quad.Float) (Interval, error) {
	if !ymin.IsFinite() || !ymax.IsFinite() {
		return Interval{}, invalidInput("interval bounds must be finite").
			WithDetail("ymin", ymin.String()).
			WithDetail("ymax", ymax.String())
	}
	if ymin.Sign() <= 0 {
		return Interval{}, invalidInput("ymin must be positive").WithDetail("ymin", ymin.String())
	}
	if !ymin.Less(ymax) {
		return Interval{}, invalidInput("ymin must be smaller than ymax").
			WithDetail("ymin", ymin.String()).
			WithDetail("ymax", ymax.String())
	}
	return Interval{Ymin: ymin, Ymax: ymax}, nil
}

// IntervalFromEnergies derives the interval of orbital-energy denominators
// from the occupied range [emin, ehomo] and the virtual range [elumo, emax]:
//
//	ymin = 2·(elumo - ehomo)
//	ymax = 2·(emax - emin)
func IntervalFromEnergies(emin, ehomo, elumo, emax quad.Float) (Interval, error) {
	names := []string{"emin", "ehomo", "elumo", "emax"}
	for i, v := range []quad.Float{emin, ehomo, elumo, emax} {
		if !v.IsFinite() {
			return Interval{}, invalidInput("orbital energies must be finite").WithDetail(names[i], v.String())
		}
	}
	if emin.Greater(ehomo) || !ehomo.Less(elumo) || elumo.Greater(emax) {
		return Interval{}, invalidInput("orbital energies must satisfy emin <= ehomo < elumo <= emax").
			WithDetail("emin", emin.String()).
			WithDetail("ehomo", ehomo.String()).
			WithDetail("elumo", elumo.String()).
			WithDetail("emax", emax.String())
	}
	ymin := two.Mul(elumo.Sub(ehomo))
	ymax := two.Mul(emax.Sub(emin))
	if ymin.Eq(ymax) {
		return Interval{}, invalidInput("orbital energies span a single denominator").
			WithDetail("ymin", ymin.String())
	}
	return NewInterval(ymin, ymax)
}

// Ratio returns Ymax/Ymin, the length of the normalized interval [1, R]
func (iv Interval) Ratio() quad.Float {
	return iv.Ymax.Quo(iv.Ymin)
}

func invalidInput(msg string) *mdwerror.Error {
	return mdwerror.New(msg).
		WithCode(mdwerror.CodeInvalidInput).
		WithOperation("minimax.Compute")
}
