package quad

// Traits describes Float to generic numeric code. It satisfies the trait
// set of pkg/linalg without either package importing the other.
type Traits struct{}

// Zero returns +0
func (Traits) Zero() Float { return Float{} }

// One returns 1
func (Traits) One() Float { return one }

// FromFloat64 converts f exactly
func (Traits) FromFloat64(f float64) Float { return FromFloat64(f) }

// Epsilon returns 2^-112
func (Traits) Epsilon() Float { return epsilon }

// DummyPrecision returns the default fuzzy-comparison tolerance
func (Traits) DummyPrecision() Float { return dummyPrecision }

// Highest returns the largest finite value
func (Traits) Highest() Float { return maxFinite }

// Lowest returns the most negative finite value
func (Traits) Lowest() Float { return lowest }

// Digits10 returns the decimal digits the format represents faithfully
func (Traits) Digits10() int { return Digits10 }

// IsNaN reports whether x is not-a-number
func (Traits) IsNaN(x Float) bool { return x.nan }
