package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// 表头第一行的分组标题
var headerGroups = []struct {
	from, to string
	title    string
}{
	{"B", "H", "场地入账"},
	{"I", "L", "云店销售"},
	{"M", "M", "体验课"},
	{"N", "O", "充值"},
	{"P", "P", "月卡"},
	{"Q", "R", "合计"},
}

// headerRows 表头占用的行数
const headerRows RowIndex = 2

// Create 新建空白账本：每日数据表头与月度汇总表
//
// 工作表名与首个数据行取自 opts，与 New 使用同一份配置；
// 首个数据行必须位于表头之下。文件已存在时返回错误，不会覆盖。
func Create(path string, opts Options) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	if sheet == DefaultSummarySheet {
		return fmt.Errorf("每日数据表不能命名为 %q", DefaultSummarySheet)
	}
	first := opts.FirstDataRow
	if first <= 0 {
		first = DefaultFirstDataRow
	}
	if first <= headerRows {
		return fmt.Errorf("首个数据行 %d 必须大于 %d（表头之下）", first, headerRows)
	}
	styles := DefaultStyleSheet()
	if opts.Styles != nil {
		styles = *opts.Styles
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s 已存在", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, first, styles); err != nil {
		return err
	}
	if err := writeSummarySheet(f, sheet); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return f.SaveAs(path)
}

func writeHeader(f *excelize.File, sheet string, first RowIndex, styles StyleSheet) error {
	header := styles.Profile(GroupPrimary)
	header.Bold = true
	headerStyle, err := f.NewStyle(header.excelizeStyle())
	if err != nil {
		return err
	}

	if err := f.SetCellStr(sheet, "A1", "日期"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "A2"); err != nil {
		return err
	}
	for _, g := range headerGroups {
		if err := f.SetCellStr(sheet, g.from+"1", g.title); err != nil {
			return err
		}
		if g.from != g.to {
			if err := f.MergeCell(sheet, g.from+"1", g.to+"1"); err != nil {
				return err
			}
		}
	}
	for _, c := range columns[1:] {
		if err := f.SetCellStr(sheet, c.Name+"2", c.HeaderText()); err != nil {
			return err
		}
	}
	last := columns[len(columns)-1].Name
	if err := f.SetCellStyle(sheet, "A1", last+"2", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 10); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", last, 13); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      int(first) - 1,
		TopLeftCell: cellName("B", first),
		ActivePane:  "bottomRight",
	})
}

// writeSummarySheet 每月一行，按日期前缀 SUMIFS 汇总每日数据
func writeSummarySheet(f *excelize.File, daily string) error {
	sheet := DefaultSummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetCellStr(sheet, "A1", "月份"); err != nil {
		return err
	}

	summed := columns[1:]
	for i, c := range summed {
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, c.HeaderText()); err != nil {
			return err
		}
	}

	for month := 1; month <= 12; month++ {
		row := month + 1
		label, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellStr(sheet, label, fmt.Sprintf("%d月", month)); err != nil {
			return err
		}
		for i, c := range summed {
			cell, err := excelize.CoordinatesToCellName(i+2, row)
			if err != nil {
				return err
			}
			if err := f.SetCellFormula(sheet, cell, SummaryFormula(daily, c.Name, month)); err != nil {
				return err
			}
		}
	}
	return nil
}

// SummaryFormula 每日数据表 daily 中某列在某月的汇总公式
func SummaryFormula(daily, col string, month int) string {
	ref := "'" + strings.ReplaceAll(daily, "'", "''") + "'"
	return fmt.Sprintf(`SUMIFS(%s!%s:%s,%s!$A:$A,"%02d-*")`, ref, col, col, ref, month)
}

// HeaderLabels 第二行的列标题，按列顺序
func HeaderLabels() []string {
	out := make([]string, 0, len(columns))
	out = append(out, "日期")
	for _, c := range columns[1:] {
		out = append(out, c.HeaderText())
	}
	return out
}
