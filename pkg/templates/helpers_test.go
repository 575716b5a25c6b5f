package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "Hello World", expected: "Hello World"},
		{name: "bold", input: "*bold*", expected: "\\*bold\\*"},
		{name: "price", input: "$189.50 (+1.2%)", expected: "$189\\.50 \\(\\+1\\.2%\\)"},
		{name: "backslash first", input: `a\b_c`, expected: `a\\b\_c`},
		{name: "ticker index", input: "^GSPC-1", expected: "^GSPC\\-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeMarkdownV2(tt.input))
		})
	}
}

func TestSafeTextV2_DropsInvalidUTF8(t *testing.T) {
	assert.Equal(t, "ok\\!", SafeTextV2("ok\xff!"))
}

func TestStripMarkdownBold(t *testing.T) {
	assert.Equal(t, "Routing to: Market Analyst", StripMarkdownBold("Routing to: **Market Analyst**"))
}
