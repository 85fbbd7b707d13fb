package workbook

import (
	"fmt"
	"strings"
)

// DuplicatePolicy 日期已存在时的处理方式
//
// 零值无效，调用方必须显式选择。
type DuplicatePolicy int

const (
	DuplicateAbort               DuplicatePolicy = iota + 1 // 中止，不写入
	DuplicateForceAppendAsNewRow                            // 追加为新行，旧行保留
)

func (p DuplicatePolicy) Valid() bool {
	return p == DuplicateAbort || p == DuplicateForceAppendAsNewRow
}

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateAbort:
		return "abort"
	case DuplicateForceAppendAsNewRow:
		return "append"
	default:
		return "unset"
	}
}

// ParseDuplicatePolicy 解析 "abort" / "append"
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return DuplicateAbort, nil
	case "append", "force", "force-append":
		return DuplicateForceAppendAsNewRow, nil
	default:
		return 0, fmt.Errorf("未知的重复日期处理方式: %q", s)
	}
}

// MarshalText 用于配置与 JSON
func (p DuplicatePolicy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, ErrDuplicatePolicyRequired
	}
	return []byte(p.String()), nil
}

// UnmarshalText 用于配置与 JSON
func (p *DuplicatePolicy) UnmarshalText(text []byte) error {
	v, err := ParseDuplicatePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
