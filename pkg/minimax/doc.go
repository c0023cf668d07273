// Package minimax computes best exponential-sum approximations of 1/x.
//
// For an order k and an interval [ymin, ymax] with 0 < ymin < ymax the solver
// finds weights w_i and exponents a_i such that
//
//	1/x ≈ Σ w_i·exp(-a_i·x)
//
// with the smallest possible maximum error on the interval. The error curve of
// the optimum equioscillates: it attains its maximum magnitude at 2k+1 points
// with alternating sign. The solver drives a Remez-type exchange towards that
// state, carrying every intermediate value in quad precision; only the final
// weights and exponents are narrowed to float64.
//
// Work happens on the normalized interval [1, R], R = ymax/ymin. Results are
// scaled back by w = ω/ymin and a = α/ymin, so scaling the interval by c
// scales weights and exponents by 1/c.
//
// Typical use:
//
//	s := minimax.New(minimax.Quiet)
//	if err := s.ComputeFromEnergies(-2, -1, 1, 2, 3); err != nil {
//		return err
//	}
//	w, a := s.Weights(), s.Exponents()
package minimax
