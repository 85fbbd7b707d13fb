package parser

import (
	"regexp"
	"strings"
)

var headerSearchPattern = regexp.MustCompile(`\d+月\d+日销售日报`)

// minContentLines 日期标题加至少一行内容
const minContentLines = 2

// CheckStructure 快速检查文本是否像一份日报：非空、含日期标题、至少两行内容
//
// 只做粗检，不解析数值；通过后仍需 Parse。
func CheckStructure(text string) error {
	text = trimBOM(text)
	if strings.TrimSpace(text) == "" {
		return dateError(0, "", "输入文本为空")
	}
	if !headerSearchPattern.MatchString(text) {
		return dateError(0, "", "未找到日期标题")
	}

	n := 0
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	if n < minContentLines {
		return &ParseError{Kind: KindInsufficientContent, Reason: "输入内容太少，请确认格式正确"}
	}
	return nil
}
