package quad

import (
	"encoding/json"
	"fmt"
	"strings"
)

// displayDigits is the number of fractional digits printed by String
const displayDigits = 20

// String formats x as a signed mantissa with one leading digit, twenty
// fractional digits and a decimal exponent, e.g. +9.62964972193617926528e-35.
// Special values print as +nan, +inf and -inf.
func (x Float) String() string {
	return x.Text('e', displayDigits)
}

// Exact formats x with MaxDigits10 significant digits, enough for Parse to
// recover the identical value.
func (x Float) Exact() string {
	return x.Text('e', MaxDigits10-1)
}

// Text formats x like big.Float.Text and always writes a sign
func (x Float) Text(format byte, prec int) string {
	switch {
	case x.nan:
		return "+nan"
	case x.IsInf(1):
		return "+inf"
	case x.IsInf(-1):
		return "-inf"
	}
	s := x.big().Text(format, prec)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}

// Format implements fmt.Formatter. The verbs of big.Float are supported; %s
// and %v print the String form.
func (x Float) Format(f fmt.State, verb rune) {
	switch {
	case verb == 's' || verb == 'v':
		fmt.Fprint(f, x.String())
	case x.nan:
		fmt.Fprint(f, "NaN")
	default:
		x.big().Format(f, verb)
	}
}

// MarshalText implements encoding.TextMarshaler using the exact form
func (x Float) MarshalText() ([]byte, error) {
	return []byte(x.Exact()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (x *Float) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}

// MarshalJSON encodes x as a JSON string so that no digits are lost
func (x Float) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.Exact())
}

// UnmarshalJSON accepts a JSON string or a bare JSON number
func (x *Float) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	return x.UnmarshalText([]byte(s))
}
