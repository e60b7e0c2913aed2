// Package growth holds the arithmetic behind the platform's estimation
// questions: compound interest and exponential quantities. Exponential
// results are kept as arbitrary-precision integers because the interesting
// questions (2^200 grains of rice) overflow float64 long before they stop
// surprising people.
package growth

import (
	"fmt"
	"math"
	"math/big"
)

// Compound returns principal * (1+rate)^periods.
func Compound(principal, rate float64, periods int) float64 {
	return principal * math.Pow(1+rate, float64(periods))
}

// Exponential returns base^exponent as a big integer. Base must be a whole
// number >= 0; exponent < 0 yields zero.
func Exponential(base float64, exponent int) *big.Int {
	if exponent < 0 {
		return big.NewInt(0)
	}
	b := new(big.Int).SetInt64(int64(base))
	return new(big.Int).Exp(b, big.NewInt(int64(exponent)), nil)
}

// Ratio returns estimate / actual as a float64, computed through big.Float so
// that astronomically large actual values collapse to a clean small ratio
// instead of overflowing.
func Ratio(estimate float64, actual *big.Int) float64 {
	if actual.Sign() == 0 {
		return 0
	}
	e := new(big.Float).SetFloat64(estimate)
	a := new(big.Float).SetInt(actual)
	r, _ := new(big.Float).Quo(e, a).Float64()
	return r
}

// Scientific renders a big integer as scientific notation with three
// significant digits, e.g. "1.61e+60".
func Scientific(n *big.Int) string {
	f := new(big.Float).SetInt(n)
	return f.Text('e', 2)
}

// Magnitude returns the base-10 order of magnitude of a big integer.
func Magnitude(n *big.Int) int {
	if n.Sign() == 0 {
		return 0
	}
	return len(new(big.Int).Abs(n).String()) - 1
}

// Describe renders a human-readable comparison of an estimate against the
// true value, used in estimation feedback.
func Describe(estimate float64, actual *big.Int) string {
	r := Ratio(estimate, actual)
	if r <= 0 {
		return fmt.Sprintf("the true value is about %s", Scientific(actual))
	}
	return fmt.Sprintf("your estimate covers %.2g of the true value %s", r, Scientific(actual))
}
