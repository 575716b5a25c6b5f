package tax

import (
	"context"
	"strings"

	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
	"finassist/pkg/templates"
)

const consultNote = "Consult a tax professional for your specific situation."

// CompareArgs selects the accounts to compare.
type CompareArgs struct {
	AccountTypes string `json:"account_types,omitempty" jsonschema:"Comma separated account types: traditional_ira, roth_ira, 401k, 403b, hsa (default traditional_ira,roth_ira,401k)"`
}

// CompareResult lists the requested accounts in request order.
type CompareResult struct {
	Year     int       `json:"year"`
	Accounts []Account `json:"accounts"`
	Unknown  []string  `json:"unknown"`
	Note     string    `json:"note"`
}

// NewCompareRetirementAccountsTool returns the account comparison tool.
func NewCompareRetirementAccountsTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"compare_retirement_accounts",
		"Compare retirement account types (traditional_ira, roth_ira, 401k, 403b, hsa): tax treatment, contribution limits, RMDs and who they suit",
		compareAccounts,
		deps,
	).
		WithStats().
		Build()
}

func compareAccounts(_ context.Context, args CompareArgs) (CompareResult, error) {
	list := args.AccountTypes
	if strings.TrimSpace(list) == "" {
		list = DefaultAccounts
	}

	byKey := make(map[string]Account, len(Accounts))
	for _, a := range Accounts {
		byKey[a.Key] = a
	}

	res := CompareResult{Year: FactsYear, Accounts: make([]Account, 0), Unknown: make([]string, 0), Note: consultNote}
	seen := make(map[string]bool)
	for _, raw := range strings.Split(list, ",") {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" {
			continue
		}
		if alias, ok := accountAliases[key]; ok {
			key = alias
		}
		key = strings.ReplaceAll(key, " ", "_")

		a, ok := byKey[key]
		switch {
		case !ok:
			res.Unknown = append(res.Unknown, strings.TrimSpace(raw))
		case !seen[key]:
			seen[key] = true
			res.Accounts = append(res.Accounts, a)
		}
	}

	if len(res.Accounts) == 0 {
		return CompareResult{}, errors.NewValidationError("account_types", "no supported account types; use traditional_ira, roth_ira, 401k, 403b or hsa", args.AccountTypes)
	}
	return res, nil
}

// HoldingPeriodArgs selects which capital gains rules to explain.
type HoldingPeriodArgs struct {
	HoldingPeriod string `json:"holding_period,omitempty" jsonschema:"One of short_term, long_term, both (default both)"`
}

// ExplanationResult is an educational text.
type ExplanationResult struct {
	Explanation string `json:"explanation"`
}

// NewExplainCapitalGainsTaxTool returns the capital gains explainer.
func NewExplainCapitalGainsTaxTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"explain_capital_gains_tax",
		"Explain short-term and long-term capital gains tax rates and thresholds",
		explainCapitalGains,
		deps,
	).Build()
}

func explainCapitalGains(_ context.Context, args HoldingPeriodArgs) (ExplanationResult, error) {
	period := strings.ToLower(strings.TrimSpace(args.HoldingPeriod))
	period = strings.NewReplacer("-", "_", " ", "_").Replace(period)

	data := capitalGainsData{
		Year:             FactsYear,
		HoldingThreshold: "1 year",
		OrdinaryRange:    "10% to 37%",
		LongTermRates:    []string{"0%", "15%", "20%"},
		Brackets:         longTermBrackets,
	}
	switch period {
	case "", "both":
		data.ShortTerm, data.LongTerm = true, true
	case "short_term", "short":
		data.ShortTerm = true
	case "long_term", "long":
		data.LongTerm = true
	default:
		return ExplanationResult{}, errors.NewValidationError("holding_period", "use short_term, long_term or both", args.HoldingPeriod)
	}

	text, err := templates.Get().Render("tax/capital_gains", data)
	if err != nil {
		return ExplanationResult{}, err
	}
	return ExplanationResult{Explanation: text}, nil
}

// NewExplainTaxLossHarvestingTool returns the tax-loss harvesting explainer.
func NewExplainTaxLossHarvestingTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"explain_tax_loss_harvesting",
		"Explain the concept, rules and benefits of tax-loss harvesting, including the wash sale rule",
		explainLossHarvesting,
		deps,
	).Build()
}

func explainLossHarvesting(_ context.Context, _ shared.NoArgs) (ExplanationResult, error) {
	text, err := templates.Get().Render("tax/loss_harvesting", lossHarvesting)
	if err != nil {
		return ExplanationResult{}, err
	}
	return ExplanationResult{Explanation: text}, nil
}
