// Package valuation implements a two-stage discounted-cash-flow model:
// projected free cash flow discounted over a growth period, plus a
// Gordon-growth terminal value, divided by shares outstanding.
package valuation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Inputs are the DCF parameters. Rates are fractions (0.10 = 10%).
type Inputs struct {
	FreeCashFlow      float64
	GrowthRate        float64
	DiscountRate      float64
	TerminalGrowth    float64
	GrowthYears       int
	SharesOutstanding float64
}

var (
	// ErrDiscountBelowTerminal rejects the configuration where the terminal
	// value diverges or flips sign. Never clamped, always surfaced.
	ErrDiscountBelowTerminal = errors.New("discount rate must exceed terminal growth rate")

	ErrNoShares = errors.New("shares outstanding must be positive")
)

// Validate rejects configurations that would produce a nonsensical value.
func (in Inputs) Validate() error {
	if in.DiscountRate <= in.TerminalGrowth {
		return fmt.Errorf("%w: discount=%.4f terminal=%.4f",
			ErrDiscountBelowTerminal, in.DiscountRate, in.TerminalGrowth)
	}
	if in.SharesOutstanding <= 0 {
		return ErrNoShares
	}
	if in.GrowthYears < 1 {
		return fmt.Errorf("growth years must be at least 1, got %d", in.GrowthYears)
	}
	return nil
}

// IntrinsicValue returns the per-share DCF value. Negative free cash flow is
// accepted and produces a negative value; invalid rate configurations are
// rejected per Validate.
func IntrinsicValue(in Inputs) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	one := decimal.NewFromInt(1)
	fcf := decimal.NewFromFloat(in.FreeCashFlow)
	growth := one.Add(decimal.NewFromFloat(in.GrowthRate))
	discount := one.Add(decimal.NewFromFloat(in.DiscountRate))

	// Stage one: discounted projected FCF over the growth period.
	total := decimal.Zero
	projected := fcf
	discountFactor := one
	for year := 1; year <= in.GrowthYears; year++ {
		projected = projected.Mul(growth)
		discountFactor = discountFactor.Mul(discount)
		total = total.Add(projected.Div(discountFactor))
	}

	// Stage two: Gordon-growth terminal value discounted back from year N.
	spread := decimal.NewFromFloat(in.DiscountRate).Sub(decimal.NewFromFloat(in.TerminalGrowth))
	terminal := projected.
		Mul(one.Add(decimal.NewFromFloat(in.TerminalGrowth))).
		Div(spread)
	total = total.Add(terminal.Div(discountFactor))

	perShare := total.Div(decimal.NewFromFloat(in.SharesOutstanding))
	return perShare.InexactFloat64(), nil
}

// MarginOfSafety returns (intrinsic − price) / intrinsic in percent.
// Zero intrinsic value yields an error rather than a division by zero.
func MarginOfSafety(intrinsic, price float64) (float64, error) {
	if intrinsic == 0 {
		return 0, errors.New("intrinsic value is zero")
	}
	return (intrinsic - price) / intrinsic * 100, nil
}
