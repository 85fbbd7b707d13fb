package parser

import (
	"errors"
	"fmt"
)

var (
	ErrMissingOrMalformedDate = errors.New("未找到有效的日期标题 (格式: X月Y日销售日报)")
	ErrMalformedNumber        = errors.New("数字格式错误")
	ErrInsufficientContent    = errors.New("输入内容太少，请确认格式正确")
)

// ParseError 解析失败；不会产生任何写入
type ParseError struct {
	Kind   ErrorKind
	Line   int    // 出错行号（从 1 开始），0 表示整段文本
	Label  string // 数字格式错误时的标签
	Text   string // 出错的原始行
	Reason string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindMalformedNumber:
		return fmt.Sprintf("第 %d 行 %s 的数值无法识别: %q", e.Line, e.Label, e.Text)
	case KindMissingOrMalformedDate:
		if e.Reason != "" {
			return fmt.Sprintf("%s: %s", ErrMissingOrMalformedDate.Error(), e.Reason)
		}
		return ErrMissingOrMalformedDate.Error()
	case KindInsufficientContent:
		return ErrInsufficientContent.Error()
	default:
		return "解析失败"
	}
}

// Is 支持 errors.Is(err, ErrMalformedNumber) 等判断
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrMissingOrMalformedDate:
		return e.Kind == KindMissingOrMalformedDate
	case ErrMalformedNumber:
		return e.Kind == KindMalformedNumber
	case ErrInsufficientContent:
		return e.Kind == KindInsufficientContent
	}
	return false
}

func dateError(line int, text, reason string) *ParseError {
	return &ParseError{Kind: KindMissingOrMalformedDate, Line: line, Text: text, Reason: reason}
}

func numberError(line int, label, text string) *ParseError {
	return &ParseError{Kind: KindMalformedNumber, Line: line, Label: label, Text: text}
}
