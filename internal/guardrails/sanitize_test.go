package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What is diversification?", "What is diversification?"},
		{"  What   is \n\n\t a bond?  ", "What is a bond?"},
		{"nul\x00byte and bell\x07", "nulbyte and bell"},
		{"a \x00 b", "a b"},
		{"sooooooo good!!!!!!", "sooo good!!!"},
		{"exactly aaaa four", "exactly aaaa four"},
		{"ééééééé", "ééé"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input %q", tt.in)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"What   is   \n\n diversification?   ",
		"a \x00 b\x7f  c",
		"zzzzzzzzzz  \t yyyyyy",
		"\x01\x02   \x03",
		"   ",
		"mixed\r\nline\x1bendings",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestSpecialCharRatio(t *testing.T) {
	assert.Zero(t, specialCharRatio(""))
	assert.Zero(t, specialCharRatio("What is 5% of $100 (roughly)?"))
	assert.InDelta(t, 0.5, specialCharRatio("ab@#"), 1e-9)
}
