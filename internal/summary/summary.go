package summary

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"dailyledger/internal/model"
	"dailyledger/internal/validator"
)

// Currency 账本币种
const Currency = money.CNY

// FormatAmount 千分位、两位小数的人民币金额
func FormatAmount(v decimal.Decimal) string {
	cur := *money.New(0, Currency).Currency()
	minor := v.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Markdown 日报汇总：已填报字段、四个合计与提醒
func Markdown(rec model.DailyRecord, warnings []validator.Warning) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %d月%d日 数据汇总\n\n", rec.Date().Month, rec.Date().Day)

	present := rec.PresentFields()
	if len(present) == 0 {
		b.WriteString("（无有效数据）\n")
	} else {
		b.WriteString("| 项目 | 金额 |\n|---|---:|\n")
		for _, f := range present {
			v, _ := rec.Value(f).Get()
			fmt.Fprintf(&b, "| %s | %s |\n", f.Label(), FormatAmount(v))
		}
	}

	b.WriteString("\n| 合计 | 金额 |\n|---|---:|\n")
	totals := model.ComputeTotals(rec)
	for _, t := range model.AllTotals() {
		fmt.Fprintf(&b, "| %s | %s |\n", t.Label(), FormatAmount(totals[t]))
	}

	if len(warnings) > 0 {
		b.WriteString("\n**提醒**\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w.String())
		}
	}
	return b.String()
}

// Render 在终端渲染 Markdown；style 为空时自动选择
func Render(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
