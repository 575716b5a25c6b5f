// Package tools holds the catalog and registry of the function tools exposed
// to the specialized agents. Concrete tools live in the category subpackages.
package tools

// Tool categories.
const (
	CategoryMarketData = "market_data"
	CategoryNews       = "news"
	CategoryPortfolio  = "portfolio"
	CategoryPlanning   = "planning"
	CategoryTax        = "tax"
	CategoryEducation  = "education"
)
