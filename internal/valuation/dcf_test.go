package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInputs() Inputs {
	return Inputs{
		FreeCashFlow:      1_000_000_000,
		GrowthRate:        0.08,
		DiscountRate:      0.10,
		TerminalGrowth:    0.025,
		GrowthYears:       10,
		SharesOutstanding: 500_000_000,
	}
}

func TestIntrinsicValuePositive(t *testing.T) {
	v, err := IntrinsicValue(baseInputs())
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
}

func TestIntrinsicValueSingleYearHandComputed(t *testing.T) {
	// One growth year, round numbers, verifiable by hand:
	// fcf1 = 110, pv1 = 110/1.10 = 100
	// terminal = 110*1.02/(0.10-0.02) = 1402.5, pv = 1402.5/1.10 = 1275
	// per share = (100 + 1275) / 10 = 137.5
	in := Inputs{
		FreeCashFlow:      100,
		GrowthRate:        0.10,
		DiscountRate:      0.10,
		TerminalGrowth:    0.02,
		GrowthYears:       1,
		SharesOutstanding: 10,
	}
	v, err := IntrinsicValue(in)
	require.NoError(t, err)
	assert.InDelta(t, 137.5, v, 1e-9)
}

func TestIntrinsicValueStrictlyDecreasingInDiscountRate(t *testing.T) {
	in := baseInputs()
	prev := 0.0
	for i, rate := range []float64{0.07, 0.08, 0.10, 0.12, 0.15} {
		in.DiscountRate = rate
		v, err := IntrinsicValue(in)
		require.NoError(t, err)
		if i > 0 {
			assert.Less(t, v, prev, "discount=%.2f", rate)
		}
		prev = v
	}
}

func TestDiscountBelowTerminalRejected(t *testing.T) {
	in := baseInputs()

	in.DiscountRate = 0.02
	in.TerminalGrowth = 0.03
	_, err := IntrinsicValue(in)
	require.ErrorIs(t, err, ErrDiscountBelowTerminal)

	// Equality diverges too.
	in.DiscountRate = 0.03
	_, err = IntrinsicValue(in)
	require.ErrorIs(t, err, ErrDiscountBelowTerminal)
}

func TestInvalidShares(t *testing.T) {
	in := baseInputs()
	in.SharesOutstanding = 0
	_, err := IntrinsicValue(in)
	require.ErrorIs(t, err, ErrNoShares)
}

func TestNegativeFCFAllowed(t *testing.T) {
	in := baseInputs()
	in.FreeCashFlow = -500_000_000
	v, err := IntrinsicValue(in)
	require.NoError(t, err)
	assert.Less(t, v, 0.0)
}

func TestMarginOfSafety(t *testing.T) {
	m, err := MarginOfSafety(200, 150)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, m, 1e-9)

	_, err = MarginOfSafety(0, 150)
	require.Error(t, err)
}
