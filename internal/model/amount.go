package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount 可缺省的金额
//
// 零值表示“未填报”，与“填报为 0”严格区分。
type Amount struct {
	value   decimal.Decimal
	present bool
}

// Absent 未填报
func Absent() Amount {
	return Amount{}
}

// Present 已填报的金额
func Present(v decimal.Decimal) Amount {
	return Amount{value: v, present: true}
}

// PresentInt 整数金额（测试与手工构造用）
func PresentInt(v int64) Amount {
	return Present(decimal.NewFromInt(v))
}

// ParseAmount 解析数字字面量；空串返回未填报
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Absent(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Absent(), fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Present(d), nil
}

// IsPresent 是否已填报
func (a Amount) IsPresent() bool {
	return a.present
}

// Get 返回金额及是否已填报
func (a Amount) Get() (decimal.Decimal, bool) {
	return a.value, a.present
}

// OrZero 未填报按 0 处理（与工作表空单元格求和语义一致）
func (a Amount) OrZero() decimal.Decimal {
	if !a.present {
		return decimal.Zero
	}
	return a.value
}

// IsNegative 已填报且小于 0
func (a Amount) IsNegative() bool {
	return a.present && a.value.IsNegative()
}

// IsInteger 已填报且为整数
func (a Amount) IsInteger() bool {
	return a.present && a.value.IsInteger()
}

// Equal 两个金额是否相同（缺省状态也参与比较）
func (a Amount) Equal(b Amount) bool {
	if a.present != b.present {
		return false
	}
	return !a.present || a.value.Equal(b.value)
}

// CellValue 写入单元格的值：int64 范围内的整数原样写入，其余写 float64，未填报返回 nil
func (a Amount) CellValue() interface{} {
	if !a.present {
		return nil
	}
	if a.value.IsInteger() && a.value.BigInt().IsInt64() {
		return a.value.IntPart()
	}
	return a.value.InexactFloat64()
}

func (a Amount) String() string {
	if !a.present {
		return "-"
	}
	return a.value.String()
}

// MarshalJSON 未填报编码为 null
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON null 解码为未填报
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Absent()
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*a = Present(d)
	return nil
}
