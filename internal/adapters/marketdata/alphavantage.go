package marketdata

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// overviewResponse is the Alpha Vantage OVERVIEW payload. Every value is a
// string; missing values are "None" or "-".
type overviewResponse struct {
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Description          string `json:"Description"`
	Sector               string `json:"Sector"`
	Industry             string `json:"Industry"`
	Address              string `json:"Address"`
	OfficialSite         string `json:"OfficialSite"`
	FullTimeEmployees    string `json:"FullTimeEmployees"`
	MarketCapitalization string `json:"MarketCapitalization"`
	PERatio              string `json:"PERatio"`
	ForwardPE            string `json:"ForwardPE"`
	DividendYield        string `json:"DividendYield"`
	WeekHigh52           string `json:"52WeekHigh"`
	WeekLow52            string `json:"52WeekLow"`

	Note        string `json:"Note"`
	Information string `json:"Information"`
}

func (o *overviewResponse) companyInfo() *CompanyInfo {
	return &CompanyInfo{
		Symbol:           o.Symbol,
		Name:             nonEmpty(o.Name, o.Symbol),
		Sector:           present(o.Sector),
		Industry:         present(o.Industry),
		Description:      truncate(present(o.Description), maxDescriptionLength),
		Website:          present(o.OfficialSite),
		Headquarters:     present(o.Address),
		Employees:        parseInt(o.FullTimeEmployees),
		MarketCap:        parseInt(o.MarketCapitalization),
		PERatio:          parseDecimal(o.PERatio),
		ForwardPE:        parseDecimal(o.ForwardPE),
		DividendYield:    parseDecimal(o.DividendYield),
		FiftyTwoWeekHigh: parseDecimal(o.WeekHigh52),
		FiftyTwoWeekLow:  parseDecimal(o.WeekLow52),
		Source:           providerAlphaVantage,
	}
}

func present(s string) string {
	s = strings.TrimSpace(s)
	if s == "None" || s == "-" {
		return ""
	}
	return s
}

func nonEmpty(s, fallback string) string {
	if s = present(s); s != "" {
		return s
	}
	return fallback
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(present(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(present(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
