// Package telegram is a small bot framework: an abstract Bot, update types,
// a command registry with middleware and a webhook handler.
package telegram

import (
	"context"
	"unicode/utf16"
)

// MaxMessageLength is Telegram's limit for one text message, in UTF-16 code units.
const MaxMessageLength = 4096

// Bot abstracts telegram bot operations (for dependency injection)
type Bot interface {
	// Start runs the bot until ctx is cancelled (polling or webhook mode)
	Start(ctx context.Context) error

	Stop()

	// SetHandler sets the update handler
	SetHandler(handler func(Update))

	// SendMessage sends plain text, split into several messages when longer than MaxMessageLength
	SendMessage(chatID int64, text string) error

	// SendMessageWithOptions sends one message and returns its id
	SendMessageWithOptions(chatID int64, text string, opts MessageOptions) (int, error)

	// SendTyping shows the "typing..." indicator
	SendTyping(chatID int64) error
}

// MessageOptions defines options for sending messages
type MessageOptions struct {
	// ParseMode (Markdown, HTML, MarkdownV2); empty sends plain text
	ParseMode string

	DisableWebPagePreview bool
	DisableNotification   bool
	ReplyToMessageID      int
}

// SplitMessage breaks text into chunks of at most limit UTF-16 code units,
// the unit Telegram measures messages in, preferring paragraph and line
// boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	runes := []rune(text)
	var parts []string
	for {
		fit := fitRunes(runes, limit)
		if fit == len(runes) {
			break
		}
		cut := lastBreak(runes[:fit])
		if cut <= 0 {
			cut = fit
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 || len(parts) == 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// TextLength returns the length of text in UTF-16 code units. Emoji outside
// the basic plane count twice.
func TextLength(text string) int {
	n := 0
	for _, r := range text {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1 // invalid runes are sent as U+FFFD
}

// fitRunes returns how many leading runes fit in limit code units, at least one.
func fitRunes(runes []rune, limit int) int {
	units := 0
	for i, r := range runes {
		units += runeUnits(r)
		if units > limit {
			if i == 0 {
				return 1
			}
			return i
		}
	}
	return len(runes)
}

// lastBreak returns the index of the last paragraph break in chunk, falling
// back to the last newline, or 0 when there is none.
func lastBreak(chunk []rune) int {
	line := 0
	for i := len(chunk) - 1; i > 0; i-- {
		if chunk[i] != '\n' {
			continue
		}
		if chunk[i-1] == '\n' {
			return i - 1
		}
		if line == 0 {
			line = i
		}
	}
	return line
}
