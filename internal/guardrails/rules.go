package guardrails

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ProhibitedTopics are rejected on sight, matched case-insensitively as substrings.
var ProhibitedTopics = []string{
	"crypto trading bots",
	"pump and dump",
	"insider trading",
	"market manipulation",
	"guaranteed returns",
	"risk-free investment",
	"get rich quick",
	"penny stock tips",
	"forex scam",
	"ponzi scheme",
	"pyramid scheme",
}

// patternClass groups injection patterns that share a rejection message.
type patternClass struct {
	reason   string
	message  string
	patterns []*regexp.Regexp
}

var maliciousClasses = []patternClass{
	{
		reason:  ReasonSQLInjection,
		message: "⚠️ Your query contains characters that cannot be processed. Please rephrase.",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(union\s+select|drop\s+table|delete\s+from|insert\s+into)`),
			regexp.MustCompile(`(--|;|/\*|\*/)`),
		},
	},
	{
		reason:  ReasonScriptInjection,
		message: "⚠️ Your query contains invalid formatting. Please use plain text.",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<script`),
			regexp.MustCompile(`(?i)javascript:`),
			regexp.MustCompile(`(?i)onerror\s*=`),
			regexp.MustCompile(`(?i)onclick\s*=`),
		},
	},
}

const (
	maxSpecialCharRatio = 0.3
	specialCharsMessage = "⚠️ Your query contains too many special characters. Please simplify."
)

// specialCharRatio is the share of runes outside letters, digits, whitespace
// and . , ? ! - ( ) $ %.
func specialCharRatio(s string) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}
	special := 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune(" \t\n\r\f\v.,?!-()$%", r):
		default:
			special++
		}
	}
	return float64(special) / float64(total)
}

// Disclaimer is appended to a response when its trigger matches the query.
type Disclaimer struct {
	Name    string
	Trigger *regexp.Regexp
	Text    string
}

// Disclaimers are checked in order; each one is appended at most once.
var Disclaimers = []Disclaimer{
	{
		Name:    "tax",
		Trigger: regexp.MustCompile(`(?i)\b(tax advice|tax|taxes|taxable|capital gains|deductions?|irs)\b`),
		Text:    "📋 **Tax Disclaimer**: Tax laws are complex and vary by location and situation. This is educational information only. Consult a certified tax professional or CPA for tax advice specific to your situation.",
	},
	{
		Name:    "legal",
		Trigger: regexp.MustCompile(`(?i)\b(legal advice|lawsuit|contracts?|estate planning|divorce|bankruptcy)\b`),
		Text:    "⚖️ **Legal Disclaimer**: This is not legal advice. Consult a licensed attorney for legal matters.",
	},
	{
		Name:    "investment",
		Trigger: regexp.MustCompile(`(?i)(specific investment recommendation|should i buy|should i sell|invest in)`),
		Text:    "📈 **Investment Disclaimer**: This is educational information, not investment advice. All investments carry risk. Consult a licensed financial advisor before making investment decisions.",
	},
}

// GeneralDisclaimer is added unless the response already carries one.
const GeneralDisclaimer = "⚠️ **General Disclaimer**: This information is for educational purposes only and does not constitute financial, investment, tax, or legal advice. Always consult qualified professionals before making financial decisions."

var selfDisclaimed = []string{"not financial advice", "educational purposes"}

// DisclaimerSeparator joins the response to its disclaimer block.
const DisclaimerSeparator = "\n\n---\n\n"

// Rule rewrites prescriptive phrasing into educational phrasing.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// OutputRules are applied in order to every response.
var OutputRules = []Rule{
	{
		Name:        "should_definitely",
		Pattern:     regexp.MustCompile(`(?i)\byou should (definitely|absolutely|certainly|immediately)\b`),
		Replacement: "you might consider",
	},
	{
		Name:        "must",
		Pattern:     regexp.MustCompile(`(?i)\byou must\b`),
		Replacement: "you may want to",
	},
	{
		Name:        "recommend",
		Pattern:     regexp.MustCompile(`(?i)\bI recommend that you\b`),
		Replacement: "one option to consider is",
	},
	{
		Name:        "guaranteed",
		Pattern:     regexp.MustCompile(`(?i)\bguaranteed (returns|profit|gains)\b`),
		Replacement: "potential returns (not guaranteed)",
	},
	{
		Name:        "risk_free",
		Pattern:     regexp.MustCompile(`(?i)\brisk-free\b`),
		Replacement: "lower-risk",
	},
	{
		Name:        "cant_lose",
		Pattern:     regexp.MustCompile(`(?i)\bcan't lose\b`),
		Replacement: "historically stable",
	},
}

// ApplyRules runs rules over text and returns the rewritten text and the
// names of the rules that fired.
func ApplyRules(text string, rules []Rule) (string, []string) {
	var fired []string
	for _, rule := range rules {
		if !rule.Pattern.MatchString(text) {
			continue
		}
		text = rule.Pattern.ReplaceAllLiteralString(text, rule.Replacement)
		fired = append(fired, rule.Name)
	}
	return text, fired
}
