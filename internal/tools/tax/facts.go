// Package tax explains tax-advantaged accounts and capital gains rules.
package tax

// FactsYear is the tax year the figures below refer to.
const FactsYear = 2024

// Account describes a retirement account type.
type Account struct {
	Key               string `json:"key"`
	Name              string `json:"name"`
	TaxTreatment      string `json:"tax_treatment"`
	ContributionLimit string `json:"contribution_limit"`
	RMD               string `json:"rmd"`
	BestFor           string `json:"best_for"`
}

// Accounts lists the supported account types in display order.
var Accounts = []Account{
	{
		Key:               "traditional_ira",
		Name:              "Traditional IRA",
		TaxTreatment:      "Tax-deductible contributions, taxed at withdrawal",
		ContributionLimit: "$7,000 ($8,000 if 50+)",
		RMD:               "Required at age 73",
		BestFor:           "Those expecting a lower tax bracket in retirement",
	},
	{
		Key:               "roth_ira",
		Name:              "Roth IRA",
		TaxTreatment:      "After-tax contributions, tax-free withdrawals",
		ContributionLimit: "$7,000 ($8,000 if 50+)",
		RMD:               "No RMDs during the owner's lifetime",
		BestFor:           "Those expecting a higher tax bracket in retirement",
	},
	{
		Key:               "401k",
		Name:              "401(k)",
		TaxTreatment:      "Pre-tax contributions, taxed at withdrawal",
		ContributionLimit: "$23,000 ($30,500 if 50+)",
		RMD:               "Required at age 73",
		BestFor:           "Maximizing tax-deferred savings with an employer match",
	},
	{
		Key:               "403b",
		Name:              "403(b)",
		TaxTreatment:      "Pre-tax contributions, taxed at withdrawal",
		ContributionLimit: "$23,000 ($30,500 if 50+)",
		RMD:               "Required at age 73",
		BestFor:           "Non-profit and public sector employees",
	},
	{
		Key:               "hsa",
		Name:              "Health Savings Account",
		TaxTreatment:      "Triple tax advantage: deductible, grows tax-free, tax-free for medical expenses",
		ContributionLimit: "$4,150 individual, $8,300 family (+$1,000 if 55+)",
		RMD:               "None",
		BestFor:           "High-deductible health plan holders planning for medical expenses",
	},
}

// DefaultAccounts is the comparison shown when no account types are given.
const DefaultAccounts = "traditional_ira,roth_ira,401k"

var accountAliases = map[string]string{
	"traditional":     "traditional_ira",
	"ira":             "traditional_ira",
	"roth":            "roth_ira",
	"401(k)":          "401k",
	"403(b)":          "403b",
	"health_savings":  "hsa",
	"traditional ira": "traditional_ira",
	"roth ira":        "roth_ira",
}

type bracket struct {
	Rate  string
	Limit string
}

type capitalGainsData struct {
	ShortTerm        bool
	LongTerm         bool
	Year             int
	HoldingThreshold string
	OrdinaryRange    string
	LongTermRates    []string
	Brackets         []bracket
}

var longTermBrackets = []bracket{
	{Rate: "0%", Limit: "income up to ~$44,625 (single) / ~$89,250 (married filing jointly)"},
	{Rate: "15%", Limit: "income up to ~$492,300 (single) / ~$553,850 (married filing jointly)"},
	{Rate: "20%", Limit: "income above those thresholds"},
}

type lossHarvestingData struct {
	OrdinaryIncomeOffset string
	WashSaleDays         int
	ExampleGains         string
	ExampleLosses        string
	ExampleNet           string
}

var lossHarvesting = lossHarvestingData{
	OrdinaryIncomeOffset: "$3,000",
	WashSaleDays:         30,
	ExampleGains:         "$10,000",
	ExampleLosses:        "$4,000",
	ExampleNet:           "$6,000",
}
