package parser

import "dailyledger/internal/model"

// ParsedReport 解析结果
type ParsedReport struct {
	Record   model.DailyRecord    `json:"record"`
	Declared model.DeclaredTotals `json:"declared"`
	// Ignored 未识别的行（模板新增栏目时会落在这里）
	Ignored []string `json:"ignored,omitempty"`
}

// ErrorKind 解析错误类型
type ErrorKind int

const (
	KindMissingOrMalformedDate ErrorKind = iota + 1 // 缺少或无法识别日期标题
	KindMalformedNumber                             // 标签后跟随非数字内容
	KindInsufficientContent                         // 结构检查：内容行过少
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingOrMalformedDate:
		return "missing_or_malformed_date"
	case KindMalformedNumber:
		return "malformed_number"
	case KindInsufficientContent:
		return "insufficient_content"
	default:
		return "unknown"
	}
}
