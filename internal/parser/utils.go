package parser

import (
	"regexp"
	"strings"
)

var (
	ordinalPrefixPattern = regexp.MustCompile(`^[0-9０-９]+\s*[.、．]\s*`)
	spacePattern         = regexp.MustCompile(`\s+`)
)

// NormalizeLine 规范化一行：去除首尾空白、全角空格与序号前缀（"1." / "4. " / "2、"）
func NormalizeLine(line string) string {
	line = strings.ReplaceAll(line, "　", " ")
	line = strings.TrimSpace(line)
	line = ordinalPrefixPattern.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// CompactSpaces 压缩连续空白为一个空格
func CompactSpaces(s string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// isSeparator 标签与数值之间允许的分隔符
func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', ':', '：':
		return true
	}
	return false
}

// startsValue 标签之后的内容是否属于该标签（分隔符、数字、负号或行尾）
//
// 不满足时视为另一个未知标签，例如“水果”不会被当成“水”。
func startsValue(rest string) bool {
	if rest == "" {
		return true
	}
	r := []rune(rest)[0]
	return isSeparator(r) || r == '-' || (r >= '0' && r <= '9')
}

// trimBOM 去掉 Windows 记事本保存时加在开头的 UTF-8 BOM
func trimBOM(text string) string {
	return strings.TrimPrefix(text, "\uFEFF")
}

// splitLines 按行切分，兼容 \r\n
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
