package guardrails

import (
	"strings"
	"unicode"
)

// maxRepeat is how many identical characters survive a squeezed run.
const maxRepeat = 3

// sanitizeStep is one stage of input normalization.
type sanitizeStep struct {
	name  string
	apply func(string) string
}

// sanitizeSteps run in order. Control characters go first so that removing
// them can never leave a whitespace run behind.
var sanitizeSteps = []sanitizeStep{
	{name: "drop_control", apply: dropControl},
	{name: "collapse_whitespace", apply: collapseWhitespace},
	{name: "squeeze_repeats", apply: squeezeRepeats},
	{name: "trim", apply: strings.TrimSpace},
}

// Sanitize normalizes user input. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	for _, step := range sanitizeSteps {
		text = step.apply(text)
	}
	return text
}

// dropControl removes 0x00-0x1F and 0x7F, except whitespace which the
// collapse step turns into single spaces.
func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 0x20 || r == 0x7F) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// squeezeRepeats shortens runs of 5 or more identical characters to 3.
func squeezeRepeats(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		n := j - i
		if n > 4 {
			n = maxRepeat
		}
		for k := 0; k < n; k++ {
			b.WriteRune(runes[i])
		}
		i = j
	}
	return b.String()
}
