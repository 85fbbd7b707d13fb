package workbook

import (
	"fmt"
	"strings"

	"dailyledger/internal/model"
)

const (
	// DefaultSheet 每日数据工作表
	DefaultSheet = "每日数据"
	// DefaultSummarySheet 月度汇总工作表（只读，由公式汇总）
	DefaultSummarySheet = "月度汇总"
	// DefaultFirstDataRow 第 1、2 行为表头
	DefaultFirstDataRow = 3
)

// RowIndex 工作表行号（从 1 开始）
type RowIndex int

// ColumnKind 列类型
type ColumnKind int

const (
	KindDate     ColumnKind = iota + 1 // 日期
	KindLiteral                        // 录入值
	KindComputed                       // 公式
)

// Column 每日数据表的一列
type Column struct {
	Name   string // 列字母
	Kind   ColumnKind
	Field  model.Field
	Total  model.Total
	Group  StyleGroup
	Header string
}

// columns 18 列固定布局
var columns = []Column{
	{Name: "A", Kind: KindDate, Group: GroupDate, Header: "日期"},
	{Name: "B", Kind: KindComputed, Total: model.TotalVenue, Group: GroupPrimary},
	{Name: "C", Kind: KindLiteral, Field: model.FieldMeituan, Group: GroupVenue},
	{Name: "D", Kind: KindLiteral, Field: model.FieldStoredCardRedemption, Group: GroupVenue},
	{Name: "E", Kind: KindLiteral, Field: model.FieldDouyin, Group: GroupVenue},
	{Name: "F", Kind: KindLiteral, Field: model.FieldCoachingRedemption, Group: GroupVenue},
	{Name: "G", Kind: KindLiteral, Field: model.FieldWechat, Group: GroupVenue},
	{Name: "H", Kind: KindLiteral, Field: model.FieldAlipay, Group: GroupVenue},
	{Name: "I", Kind: KindComputed, Total: model.TotalStore, Group: GroupPrimary},
	{Name: "J", Kind: KindLiteral, Field: model.FieldWater, Group: GroupStore},
	{Name: "K", Kind: KindLiteral, Field: model.FieldGatorade, Group: GroupStore},
	{Name: "L", Kind: KindLiteral, Field: model.FieldOther, Group: GroupStore},
	{Name: "M", Kind: KindLiteral, Field: model.FieldTrialClass, Group: GroupPrimary},
	{Name: "N", Kind: KindLiteral, Field: model.FieldStoredCardRecharge, Group: GroupPrimary},
	{Name: "O", Kind: KindLiteral, Field: model.FieldPrivateCoachingRecharge, Group: GroupPrimary},
	{Name: "P", Kind: KindLiteral, Field: model.FieldMonthlyCard, Group: GroupPrimary},
	{Name: "Q", Kind: KindComputed, Total: model.TotalDailySales, Group: GroupTotals},
	{Name: "R", Kind: KindComputed, Total: model.TotalGrand, Group: GroupTotals},
}

// Columns 返回列布局副本
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// DateColumn 日期列
func DateColumn() string {
	return columns[0].Name
}

// FieldColumn 字段所在列
func FieldColumn(f model.Field) string {
	for _, c := range columns {
		if c.Kind == KindLiteral && c.Field == f {
			return c.Name
		}
	}
	return ""
}

// TotalColumn 合计所在列
func TotalColumn(t model.Total) string {
	for _, c := range columns {
		if c.Kind == KindComputed && c.Total == t {
			return c.Name
		}
	}
	return ""
}

// HeaderText 列标题
func (c Column) HeaderText() string {
	switch c.Kind {
	case KindLiteral:
		return c.Field.Label()
	case KindComputed:
		return c.Total.Label()
	default:
		return c.Header
	}
}

// Formula 某合计在第 row 行的公式（不含 "="），只引用同一行
func Formula(t model.Total, row RowIndex) string {
	terms := t.Composition()
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		col := ""
		if term.IsTotal {
			col = TotalColumn(term.Total)
		} else {
			col = FieldColumn(term.Field)
		}
		parts = append(parts, fmt.Sprintf("%s%d", col, row))
	}
	return strings.Join(parts, "+")
}

func cellName(col string, row RowIndex) string {
	return fmt.Sprintf("%s%d", col, row)
}
