package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_ParseCommand(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantIsCommand bool
		wantCommand   string
		wantArgs      string
	}{
		{
			name:          "simple command",
			text:          "/start",
			wantIsCommand: true,
			wantCommand:   "start",
		},
		{
			name:          "command with args",
			text:          "/ask What is an ETF?",
			wantIsCommand: true,
			wantCommand:   "ask",
			wantArgs:      "What is an ETF?",
		},
		{
			name:          "command with @botname",
			text:          "/help@FinAssistBot",
			wantIsCommand: true,
			wantCommand:   "help",
		},
		{
			name:          "command with @botname and args",
			text:          "/ask@FinAssistBot  Roth   IRA",
			wantIsCommand: true,
			wantCommand:   "ask",
			wantArgs:      "Roth IRA",
		},
		{
			name: "regular text",
			text: "What is diversification?",
		},
		{
			name:          "lone slash",
			text:          "/",
			wantIsCommand: true,
		},
		{
			name: "empty text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{Text: tt.text}
			msg.ParseCommand()

			assert.Equal(t, tt.wantIsCommand, msg.IsCommand)
			assert.Equal(t, tt.wantCommand, msg.Command)
			assert.Equal(t, tt.wantArgs, msg.Arguments)
		})
	}
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))
	assert.Equal(t, []string{""}, SplitMessage("", 10))

	parts := SplitMessage("first paragraph\n\nsecond one", 20)
	assert.Equal(t, []string{"first paragraph", "second one"}, parts)

	parts = SplitMessage("line one\nline two\nline three", 12)
	assert.Equal(t, []string{"line one", "line two", "line three"}, parts)

	long := strings.Repeat("x", 25)
	parts = SplitMessage(long, 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, parts)
}

func TestSplitMessage_CountsUTF16Units(t *testing.T) {
	assert.Equal(t, 2, TextLength("📈"))
	assert.Equal(t, 1, TextLength("€"))
	assert.Equal(t, 5, TextLength("a📋bc"))

	// 12 emoji are 24 units: a 10-unit limit fits five per chunk
	parts := SplitMessage(strings.Repeat("📈", 12), 10)
	assert.Equal(t, []string{strings.Repeat("📈", 5), strings.Repeat("📈", 5), strings.Repeat("📈", 2)}, parts)

	answer := strings.Repeat("Diversification spreads risk. 📋\n", 300)
	for _, part := range SplitMessage(answer, MaxMessageLength) {
		assert.LessOrEqual(t, TextLength(part), MaxMessageLength)
	}
}
