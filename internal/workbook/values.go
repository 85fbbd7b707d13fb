package workbook

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"dailyledger/internal/model"
)

// EvaluatedRow 计算后数值视图中的一行
type EvaluatedRow struct {
	Index  RowIndex                        `json:"row"`
	Date   string                          `json:"date"`
	Values map[model.Field]model.Amount    `json:"-"`
	Totals map[model.Total]decimal.Decimal `json:"-"`
}

// ValueView 只读的计算值会话
//
// 独立打开工作簿，没有任何写入方法，不会影响公式写入。
type ValueView struct {
	sess *session
}

// OpenValueView 打开计算值视图；用完必须 Close
func (s *Store) OpenValueView() (*ValueView, error) {
	sess, err := openSession(s.path, s.sheet, s.first, false)
	if err != nil {
		return nil, err
	}
	return &ValueView{sess: sess}, nil
}

// Close 释放工作簿
func (v *ValueView) Close() error {
	if v.sess == nil {
		return nil
	}
	v.sess.close()
	v.sess = nil
	return nil
}

// Row 读取一行并计算四个合计
func (v *ValueView) Row(row RowIndex) (EvaluatedRow, error) {
	if v.sess == nil {
		return EvaluatedRow{}, fmt.Errorf("value view closed")
	}
	base, err := v.sess.readRow(row)
	if err != nil {
		return EvaluatedRow{}, err
	}
	out := EvaluatedRow{
		Index:  base.Index,
		Date:   base.Date,
		Values: base.Values,
		Totals: make(map[model.Total]decimal.Decimal, len(base.Formulas)),
	}
	for _, t := range model.AllTotals() {
		cell := cellName(TotalColumn(t), row)
		raw, err := v.sess.file.CalcCellValue(v.sess.sheet, cell)
		if err != nil {
			return EvaluatedRow{}, storeError(KindCorruptWorkbook, v.sess.path, fmt.Errorf("计算 %s 失败: %w", cell, err))
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			out.Totals[t] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return EvaluatedRow{}, storeError(KindCorruptWorkbook, v.sess.path, fmt.Errorf("%s 的计算结果不是数字: %q", cell, raw))
		}
		out.Totals[t] = d
	}
	return out, nil
}

// Rows 计算全部数据行
func (v *ValueView) Rows() ([]EvaluatedRow, error) {
	if v.sess == nil {
		return nil, fmt.Errorf("value view closed")
	}
	occupied, err := v.sess.occupied()
	if err != nil {
		return nil, err
	}
	out := make([]EvaluatedRow, 0, len(occupied))
	for _, r := range occupied {
		row, err := v.Row(r)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
