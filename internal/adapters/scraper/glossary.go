package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// glossary is the offline fallback for term lookups, keyed by lower-case term.
var glossary = map[string]struct{ title, text string }{
	"diversification": {"Diversification",
		"Diversification is a risk management strategy that mixes a wide variety of investments within a portfolio. The idea is that a portfolio built from different kinds of assets will, on average, yield higher long-term returns and lower the risk of any individual holding or security."},
	"compound interest": {"Compound Interest",
		"Compound interest is interest calculated on the initial principal and also on all of the accumulated interest from previous periods. It makes a sum grow faster than simple interest, and the more compounding periods there are, the greater the effect."},
	"stock": {"Stock",
		"A stock is a security that represents fractional ownership of a corporation. Units of stock are called shares and entitle the owner to a proportion of the corporation's assets and profits equal to how much stock they own."},
	"bond": {"Bond",
		"A bond is a fixed-income instrument that represents a loan made by an investor to a borrower, typically a corporation or government. The borrower pays periodic interest, called the coupon, and repays the principal at maturity."},
	"etf": {"Exchange-Traded Fund (ETF)",
		"An exchange-traded fund is a pooled investment security that trades on an exchange like a stock. ETFs usually track an index, sector, commodity or other asset and tend to have lower fees than actively managed mutual funds."},
	"index fund": {"Index Fund",
		"An index fund is a mutual fund or ETF built to match the components of a market index such as the S&P 500. Index funds offer broad market exposure, low operating expenses and low portfolio turnover."},
	"mutual fund": {"Mutual Fund",
		"A mutual fund pools money from many investors to buy securities such as stocks and bonds. It is run by professional managers and priced once per day at its net asset value."},
	"dividend": {"Dividend",
		"A dividend is a distribution of a company's earnings to its shareholders, usually paid in cash each quarter. The dividend yield is the annual dividend divided by the share price."},
	"p/e ratio": {"Price-to-Earnings (P/E) Ratio",
		"The price-to-earnings ratio compares a company's share price to its earnings per share. A high P/E can mean investors expect higher growth, while a low P/E can indicate undervaluation or weaker prospects."},
	"market capitalization": {"Market Capitalization",
		"Market capitalization is the total market value of a company's outstanding shares, calculated as the share price multiplied by the number of shares outstanding."},
	"asset allocation": {"Asset Allocation",
		"Asset allocation is how an investor divides a portfolio among asset classes such as stocks, bonds and cash. The mix is usually based on goals, risk tolerance and investment horizon."},
	"dollar-cost averaging": {"Dollar-Cost Averaging",
		"Dollar-cost averaging is investing a fixed amount at regular intervals regardless of price. It buys more shares when prices are low and fewer when prices are high, reducing the impact of volatility on the average cost."},
	"expense ratio": {"Expense Ratio",
		"The expense ratio is the annual fee a fund charges, expressed as a percentage of assets under management. It covers management, administrative and operating costs."},
	"inflation": {"Inflation",
		"Inflation is the rate at which prices for goods and services rise over time, reducing the purchasing power of money. Central banks usually target a low, stable inflation rate."},
	"roth ira": {"Roth IRA",
		"A Roth IRA is an individual retirement account funded with after-tax dollars. Qualified withdrawals in retirement, including investment growth, are tax-free."},
	"401k": {"401(k) Plan",
		"A 401(k) is an employer-sponsored retirement plan that lets employees contribute part of their wages before taxes. Many employers match a portion of contributions."},
	"capital gains": {"Capital Gain",
		"A capital gain is the increase in value of an asset when it is sold for more than its purchase price. Gains on assets held longer than one year are generally taxed at lower long-term rates."},
	"volatility": {"Volatility",
		"Volatility measures how much the price of a security or market index moves over time, often expressed as the standard deviation of returns. Higher volatility means larger and more frequent price swings."},
}

var glossaryAliases = map[string]string{
	"exchange traded fund":  "etf",
	"exchange-traded fund":  "etf",
	"pe ratio":              "p/e ratio",
	"price to earnings":     "p/e ratio",
	"market cap":            "market capitalization",
	"dollar cost averaging": "dollar-cost averaging",
	"401(k)":                "401k",
	"capital gain":          "capital gains",
	"stocks":                "stock",
	"bonds":                 "bond",
	"dividends":             "dividend",
}

// BuiltinDefinition returns the offline definition of term.
func BuiltinDefinition(term string) (*TermDefinition, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(term), " "))
	if alias, ok := glossaryAliases[key]; ok {
		key = alias
	}
	entry, ok := glossary[key]
	if !ok {
		return nil, false
	}
	return &TermDefinition{
		Term:       term,
		Title:      entry.title,
		Definition: entry.text,
		Source:     "Built-in glossary",
		Builtin:    true,
	}, true
}

// EducationResource points at learning material for a topic.
type EducationResource struct {
	Title       string
	Description string
	URL         string
	Source      string
	Type        string
}

// EducationContent returns up to limit learning resources for topic from the
// approved education sites.
func EducationContent(topic string, limit int) []EducationResource {
	topic = strings.Join(strings.Fields(topic), " ")
	q := url.QueryEscape(topic)

	resources := []EducationResource{
		{
			Title:       "Introduction to " + topic,
			Description: fmt.Sprintf("Learn the basics of %s and how it impacts your investments.", topic),
			URL:         "https://www.investopedia.com/search?q=" + q,
			Source:      "Investopedia",
		},
		{
			Title:       topic + " Explained for Beginners",
			Description: fmt.Sprintf("A comprehensive guide to understanding %s in simple terms.", topic),
			URL:         "https://www.fool.com/search/?q=" + q,
			Source:      "The Motley Fool",
		},
		{
			Title:       "How " + topic + " Works",
			Description: fmt.Sprintf("Step-by-step breakdown of %s and its practical applications.", topic),
			URL:         "https://www.nerdwallet.com/search?query=" + q,
			Source:      "NerdWallet",
		},
	}
	for i := range resources {
		resources[i].Type = "educational"
	}

	if limit > 0 && limit < len(resources) {
		return resources[:limit]
	}
	return resources
}

// Calculator describes a common financial formula.
type Calculator struct {
	Name        string
	Formula     string
	Parameters  []string
	Description string
}

var calculators = map[string]Calculator{
	"compound_interest": {
		Name:        "Compound Interest Calculator",
		Formula:     "A = P(1 + r/n)^(nt)",
		Parameters:  []string{"Principal (P)", "Rate (r)", "Time (t)", "Frequency (n)"},
		Description: "Calculate future value of investments with compound interest",
	},
	"retirement": {
		Name:        "Retirement Savings Calculator",
		Formula:     "FV = PMT × [(1 + r)^n - 1] / r",
		Parameters:  []string{"Monthly contribution", "Years to retirement", "Expected return", "Current savings"},
		Description: "Estimate retirement savings based on contributions and returns",
	},
	"mortgage": {
		Name:        "Mortgage Payment Calculator",
		Formula:     "M = P[r(1+r)^n]/[(1+r)^n-1]",
		Parameters:  []string{"Loan amount", "Interest rate", "Loan term", "Down payment"},
		Description: "Calculate monthly mortgage payments",
	},
}

// CalculatorTypes lists the supported calculator keys.
var CalculatorTypes = []string{"compound_interest", "retirement", "mortgage"}

// CalculatorInfo returns the formula card for kind. "compound interest" and
// "compound-interest" are accepted as spellings of compound_interest.
func CalculatorInfo(kind string) (Calculator, bool) {
	key := strings.ToLower(strings.TrimSpace(kind))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	c, ok := calculators[key]
	return c, ok
}
