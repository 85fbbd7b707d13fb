package model

import "github.com/shopspring/decimal"

// Total 由公式计算的合计列
type Total int

const (
	TotalVenue      Total = iota // 场地入账小计
	TotalStore                   // 云店销售小计
	TotalDailySales              // 当日销售合计
	TotalGrand                   // 当日总计
)

// Term 合计的组成项：字段或另一个合计
type Term struct {
	Field   Field
	Total   Total
	IsTotal bool
}

// FieldTerm 字段组成项
func FieldTerm(f Field) Term { return Term{Field: f} }

// TotalTerm 合计组成项
func TotalTerm(t Total) Term { return Term{Total: t, IsTotal: true} }

// AllTotals 按列顺序返回全部合计
func AllTotals() []Total {
	return []Total{TotalVenue, TotalStore, TotalDailySales, TotalGrand}
}

// Composition 合计的组成；工作表公式与核对计算共用这一份定义
func (t Total) Composition() []Term {
	switch t {
	case TotalVenue:
		return fieldTerms(FieldsInSection(SectionVenue))
	case TotalStore:
		return fieldTerms(FieldsInSection(SectionStore))
	case TotalDailySales:
		return []Term{TotalTerm(TotalVenue), TotalTerm(TotalStore), FieldTerm(FieldMonthlyCard)}
	case TotalGrand:
		return []Term{
			TotalTerm(TotalVenue),
			TotalTerm(TotalStore),
			FieldTerm(FieldTrialClass),
			FieldTerm(FieldStoredCardRecharge),
			FieldTerm(FieldPrivateCoachingRecharge),
			FieldTerm(FieldMonthlyCard),
		}
	default:
		return nil
	}
}

// Key 内部名称
func (t Total) Key() string {
	switch t {
	case TotalVenue:
		return "venue_subtotal"
	case TotalStore:
		return "store_subtotal"
	case TotalDailySales:
		return "daily_sales_total"
	case TotalGrand:
		return "grand_total"
	default:
		return "unknown_total"
	}
}

// Label 中文名称
func (t Total) Label() string {
	switch t {
	case TotalVenue:
		return "场地入账金额"
	case TotalStore:
		return "云店销售"
	case TotalDailySales:
		return "当日销售合计"
	case TotalGrand:
		return "当日总计"
	default:
		return "未知合计"
	}
}

func (t Total) String() string {
	return t.Key()
}

func fieldTerms(fields []Field) []Term {
	terms := make([]Term, len(fields))
	for i, f := range fields {
		terms[i] = FieldTerm(f)
	}
	return terms
}

// ComputeTotal 按公式定义计算合计，未填报按 0
func ComputeTotal(r DailyRecord, t Total) decimal.Decimal {
	sum := decimal.Zero
	for _, term := range t.Composition() {
		if term.IsTotal {
			sum = sum.Add(ComputeTotal(r, term.Total))
			continue
		}
		sum = sum.Add(r.Value(term.Field).OrZero())
	}
	return sum
}

// ComputeTotals 计算全部合计
func ComputeTotals(r DailyRecord) map[Total]decimal.Decimal {
	out := make(map[Total]decimal.Decimal, 4)
	for _, t := range AllTotals() {
		out[t] = ComputeTotal(r, t)
	}
	return out
}
