package templates

import "strings"

// markdownV2 escapes every character Telegram MarkdownV2 reserves outside
// code entities. Backslash goes first.
var markdownV2 = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdownV2 escapes text for Telegram MarkdownV2
func EscapeMarkdownV2(text string) string {
	return markdownV2.Replace(text)
}

// SafeTextV2 drops invalid UTF-8 and escapes for MarkdownV2
func SafeTextV2(text string) string {
	return EscapeMarkdownV2(strings.ToValidUTF8(text, ""))
}

// StripMarkdownBold removes "**" emphasis markers that models emit in
// CommonMark style; MarkdownV2 would otherwise render them literally.
func StripMarkdownBold(text string) string {
	return strings.ReplaceAll(text, "**", "")
}
