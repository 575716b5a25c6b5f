package planning

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

const projectionNote = "This is an educational calculation. Actual results will vary based on market performance."

// RetirementArgs are the inputs of the retirement projection.
type RetirementArgs struct {
	CurrentAge          int     `json:"current_age" jsonschema:"Current age in years"`
	RetirementAge       int     `json:"retirement_age" jsonschema:"Planned retirement age in years"`
	MonthlyContribution float64 `json:"monthly_contribution" jsonschema:"Amount contributed every month in dollars"`
	ExpectedReturn      float64 `json:"expected_return" jsonschema:"Expected annual return in percent, for example 7"`
	CurrentSavings      float64 `json:"current_savings,omitempty" jsonschema:"Savings already invested in dollars"`
}

// RetirementResult is the projected balance at retirement.
type RetirementResult struct {
	Years               int     `json:"years"`
	Months              int64   `json:"months"`
	MonthlyContribution string  `json:"monthly_contribution"`
	ExpectedReturn      float64 `json:"expected_return_percent"`
	CurrentSavings      string  `json:"current_savings"`
	TotalContributions  string  `json:"total_contributions"`
	InvestmentGrowth    string  `json:"investment_growth"`
	ProjectedBalance    string  `json:"projected_balance"`
	Note                string  `json:"note"`
}

// NewCalculateRetirementSavingsTool returns the retirement projection tool.
func NewCalculateRetirementSavingsTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"calculate_retirement_savings",
		"Calculate projected retirement savings from current age, retirement age, monthly contribution, expected annual return and current savings",
		calculateRetirement,
		deps,
	).
		WithStats().
		Build()
}

func calculateRetirement(_ context.Context, args RetirementArgs) (RetirementResult, error) {
	years := args.RetirementAge - args.CurrentAge
	switch {
	case args.CurrentAge < 0:
		return RetirementResult{}, errors.NewValidationError("current_age", "must not be negative", args.CurrentAge)
	case years <= 0:
		return RetirementResult{}, errors.NewValidationError("retirement_age", "retirement age must be greater than current age", args.RetirementAge)
	case args.MonthlyContribution < 0:
		return RetirementResult{}, errors.NewValidationError("monthly_contribution", "must not be negative", args.MonthlyContribution)
	case args.CurrentSavings < 0:
		return RetirementResult{}, errors.NewValidationError("current_savings", "must not be negative", args.CurrentSavings)
	case args.ExpectedReturn <= -100:
		return RetirementResult{}, errors.NewValidationError("expected_return", "must be greater than -100", args.ExpectedReturn)
	}

	monthly := decimal.NewFromFloat(args.MonthlyContribution)
	current := decimal.NewFromFloat(args.CurrentSavings)
	p := newProjection(years, decimal.NewFromFloat(args.ExpectedReturn))

	balance := p.lumpSum(current).Add(monthly.Mul(p.annuity()))
	contributions := monthly.Mul(decimal.NewFromInt(p.months)).Add(current)

	return RetirementResult{
		Years:               years,
		Months:              p.months,
		MonthlyContribution: shared.Money(monthly),
		ExpectedReturn:      args.ExpectedReturn,
		CurrentSavings:      shared.Money(current),
		TotalContributions:  shared.Money(contributions),
		InvestmentGrowth:    shared.Money(balance.Sub(contributions)),
		ProjectedBalance:    shared.Money(balance),
		Note:                projectionNote,
	}, nil
}
