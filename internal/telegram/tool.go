package telegram

import "strings"

// EscapeMarkdown 转义 Markdown 格式中的特殊字符，防止用户输入破坏消息格式
func EscapeMarkdown(input string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"[", "\\[",
		"]", "\\]",
	)
	return replacer.Replace(input)
}
