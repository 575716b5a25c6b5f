// Package planning provides retirement and savings goal calculators.
package planning

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// projection is monthly compounding at an annual percentage rate.
type projection struct {
	months      int64
	monthlyRate decimal.Decimal
	factor      decimal.Decimal
}

func newProjection(years int, annualPercent decimal.Decimal) projection {
	months := int64(years) * 12
	rate := annualPercent.Div(twelve).Div(hundred)
	factor := decimal.NewFromFloat(math.Pow(1+rate.InexactFloat64(), float64(months)))
	return projection{months: months, monthlyRate: rate, factor: factor}
}

// lumpSum is the future value of a present amount.
func (p projection) lumpSum(present decimal.Decimal) decimal.Decimal {
	return present.Mul(p.factor)
}

// annuity is the future value of one unit contributed every month.
func (p projection) annuity() decimal.Decimal {
	if !p.monthlyRate.IsPositive() {
		return decimal.NewFromInt(p.months)
	}
	return p.factor.Sub(decimal.NewFromInt(1)).Div(p.monthlyRate)
}
