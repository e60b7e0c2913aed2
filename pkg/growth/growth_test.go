package growth

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExponentialExactValue(t *testing.T) {
	// 2^64 = 18446744073709551616, one past uint64 max: must not truncate.
	v := Exponential(2, 64)
	assert.Equal(t, "18446744073709551616", v.String())
}

func TestExponentialHugeMagnitude(t *testing.T) {
	v := Exponential(2, 200)
	// 2^200 has 61 digits and starts with 1606938...
	assert.Equal(t, 60, Magnitude(v))
	assert.True(t, strings.HasPrefix(v.String(), "1606938"))
}

func TestScientificNotation(t *testing.T) {
	s := Scientific(Exponential(2, 200))
	assert.Equal(t, "1.61e+60", s)
}

func TestRatioCollapsesLargeActuals(t *testing.T) {
	r := Ratio(1e10, Exponential(2, 200))
	assert.Greater(t, r, 0.0)
	assert.Less(t, r, 0.30)
}

func TestRatioOfEqualValues(t *testing.T) {
	r := Ratio(1024, Exponential(2, 10))
	assert.InDelta(t, 1.0, r, 1e-12)
}

func TestCompound(t *testing.T) {
	got := Compound(10000, 0.07, 30)
	want := 10000 * math.Pow(1.07, 30)
	assert.InDelta(t, want, got, 1e-6)
	// And the pedagogical point: far above the linear extrapolation.
	assert.Greater(t, got, 10000*(1+0.07*30))
}

func TestExponentialNegativeExponent(t *testing.T) {
	assert.Equal(t, int64(0), Exponential(2, -1).Int64())
}
