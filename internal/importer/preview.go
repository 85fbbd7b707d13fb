package importer

import (
	"github.com/shopspring/decimal"

	"dailyledger/internal/model"
	"dailyledger/internal/parser"
	"dailyledger/internal/validator"
	"dailyledger/internal/workbook"
)

// PreviewResult 试运行结果
type PreviewResult struct {
	Report           parser.ParsedReport
	Totals           map[model.Total]decimal.Decimal
	Warnings         []validator.Warning
	ValidationErrors []*validator.ValidationError
	DuplicateRow     workbook.RowIndex // 0 表示日期尚不存在
	NextRow          workbook.RowIndex
}

// WouldWrite 以 abort 方式导入时是否会写入
func (r *PreviewResult) WouldWrite() bool {
	return len(r.ValidationErrors) == 0 && r.DuplicateRow == 0
}
