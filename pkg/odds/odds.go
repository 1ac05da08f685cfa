// Package odds handles American-odds parsing and normalization.
package odds

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse accepts American odds as an int, float, or a "+120"/"-150" style
// string and returns the signed integer value.
func Parse(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(math.Round(x)), nil
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimPrefix(s, "+")
		if s == "" {
			return 0, fmt.Errorf("empty odds string")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid odds %q: %w", x, err)
		}
		return int(math.Round(f)), nil
	case nil:
		return 0, fmt.Errorf("nil odds value")
	default:
		return 0, fmt.Errorf("unsupported odds type %T", v)
	}
}

// Canonical renders odds in the stored string form: positive values drop
// the leading plus ("150"), negative values keep the sign ("-150").
func Canonical(american int) string {
	return strconv.Itoa(american)
}

// CanonicalString normalizes an odds string to canonical form, defaulting
// to "0" when the input does not parse.
func CanonicalString(s string) string {
	v, err := Parse(s)
	if err != nil {
		return "0"
	}
	return Canonical(v)
}

// InWindow reports whether odds fall inside the acceptable window
// [-maxOdds, +maxOdds]. Long shots outside the window are filtered before
// candidates ever reach the pick synthesis prompt.
func InWindow(american, maxOdds int) bool {
	if american > maxOdds || american < -maxOdds {
		return false
	}
	return true
}

// ImpliedProbability converts American odds to the bookmaker's implied
// win probability in [0,1].
func ImpliedProbability(american int) float64 {
	if american == 0 {
		return 0
	}
	if american > 0 {
		return 100.0 / (float64(american) + 100.0)
	}
	a := math.Abs(float64(american))
	return a / (a + 100.0)
}

// NormalizeConfidence accepts a confidence expressed either as a 0-1
// fraction or a 0-100 integer scale and returns an integer 0-100. Values
// strictly below 1 are treated as fractions; everything else is already a
// percentage. The operation is idempotent:
// NormalizeConfidence(NormalizeConfidence(x)) == NormalizeConfidence(x).
func NormalizeConfidence(v float64) int {
	if v > 0 && v < 1.0 {
		v = v * 100
	}
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return int(math.Round(v))
}
