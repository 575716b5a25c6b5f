package planning

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// DefaultExpectedReturn is the annual return assumed when none is given.
const DefaultExpectedReturn = 7.0

const savingsTip = "Even small increases in your monthly savings can significantly impact your goal!"

// GoalArgs are the inputs of the savings goal calculator.
type GoalArgs struct {
	GoalAmount     float64  `json:"goal_amount" jsonschema:"Target amount in dollars"`
	TimeframeYears int      `json:"timeframe_years" jsonschema:"Years until the goal"`
	CurrentSavings float64  `json:"current_savings,omitempty" jsonschema:"Savings already set aside in dollars"`
	ExpectedReturn *float64 `json:"expected_return,omitempty" jsonschema:"Expected annual return in percent (default 7)"`
}

// GoalResult is the monthly saving needed to reach a goal.
type GoalResult struct {
	GoalAmount         string  `json:"goal_amount"`
	TimeframeYears     int     `json:"timeframe_years"`
	Months             int64   `json:"months"`
	CurrentSavings     string  `json:"current_savings"`
	ExpectedReturn     float64 `json:"expected_return_percent"`
	GoalMet            bool    `json:"goal_met"`
	ProjectedSavings   string  `json:"projected_savings,omitempty"`
	RequiredMonthly    string  `json:"required_monthly,omitempty"`
	TotalContributions string  `json:"total_contributions,omitempty"`
	InvestmentGrowth   string  `json:"investment_growth,omitempty"`
	Message            string  `json:"message"`
}

// NewCalculateSavingsGoalTool returns the savings goal calculator tool.
func NewCalculateSavingsGoalTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"calculate_savings_goal",
		"Calculate the monthly savings required to reach a financial goal within a number of years",
		calculateSavingsGoal,
		deps,
	).
		WithStats().
		Build()
}

func calculateSavingsGoal(_ context.Context, args GoalArgs) (GoalResult, error) {
	expected := DefaultExpectedReturn
	if args.ExpectedReturn != nil {
		expected = *args.ExpectedReturn
	}

	switch {
	case args.TimeframeYears <= 0:
		return GoalResult{}, errors.NewValidationError("timeframe_years", "timeframe must be greater than 0 years", args.TimeframeYears)
	case args.GoalAmount <= 0:
		return GoalResult{}, errors.NewValidationError("goal_amount", "must be positive", args.GoalAmount)
	case args.CurrentSavings < 0:
		return GoalResult{}, errors.NewValidationError("current_savings", "must not be negative", args.CurrentSavings)
	case expected <= -100:
		return GoalResult{}, errors.NewValidationError("expected_return", "must be greater than -100", expected)
	}

	goal := decimal.NewFromFloat(args.GoalAmount)
	current := decimal.NewFromFloat(args.CurrentSavings)
	p := newProjection(args.TimeframeYears, decimal.NewFromFloat(expected))

	res := GoalResult{
		GoalAmount:     shared.Money(goal),
		TimeframeYears: args.TimeframeYears,
		Months:         p.months,
		CurrentSavings: shared.Money(current),
		ExpectedReturn: expected,
	}

	grown := p.lumpSum(current)
	needed := goal.Sub(grown)
	if !needed.IsPositive() {
		res.GoalMet = true
		res.ProjectedSavings = shared.Money(grown)
		res.Message = fmt.Sprintf("Your current savings of %s will grow to %s in %d years, which exceeds your goal of %s!",
			res.CurrentSavings, res.ProjectedSavings, args.TimeframeYears, res.GoalAmount)
		return res, nil
	}

	monthly := needed.Div(p.annuity())
	contributions := monthly.Mul(decimal.NewFromInt(p.months))

	res.RequiredMonthly = shared.Money(monthly)
	res.TotalContributions = shared.Money(contributions)
	res.InvestmentGrowth = shared.Money(goal.Sub(contributions).Sub(current))
	res.Message = savingsTip
	return res, nil
}
