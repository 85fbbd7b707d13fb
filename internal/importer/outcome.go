package importer

import (
	"fmt"
	"strings"

	"dailyledger/internal/backup"
	"dailyledger/internal/model"
	"dailyledger/internal/parser"
	"dailyledger/internal/validator"
	"dailyledger/internal/workbook"
)

// State 导入事务的状态
type State string

const (
	StateReceived         State = "received"
	StateParsed           State = "parsed"
	StateValidated        State = "validated"
	StateDuplicateChecked State = "duplicate_checked"
	StateBackedUp         State = "backed_up"
	StateInserted         State = "inserted"
	StateFailed           State = "failed"
)

// OutcomeKind 对上层暴露的结果类型
type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeDuplicate         OutcomeKind = "duplicate"
	OutcomeValidationFailure OutcomeKind = "validation_failure"
	OutcomeParseFailure      OutcomeKind = "parse_failure"
	OutcomeStoreFailure      OutcomeKind = "store_failure"
)

// Source 日报来源
type Source struct {
	Kind string `json:"kind"` // cli / http / watch
	Name string `json:"name,omitempty"`
}

// Outcome 一次导入的结果
type Outcome struct {
	AttemptID string             `json:"attemptId,omitempty"`
	Kind      OutcomeKind        `json:"kind"`
	State     State              `json:"state"`
	Trace     []State            `json:"trace"`
	Record    *model.DailyRecord `json:"record,omitempty"`

	Row          workbook.RowIndex `json:"row,omitempty"`
	DuplicateRow workbook.RowIndex `json:"duplicateRow,omitempty"`
	Backup       *backup.Handle    `json:"backup,omitempty"`

	Warnings         []validator.Warning          `json:"-"`
	ValidationErrors []*validator.ValidationError `json:"-"`
	ParseError       *parser.ParseError           `json:"-"`
	StoreError       *workbook.StoreError         `json:"-"`
	Ignored          []string                     `json:"ignored,omitempty"`
}

// Succeeded 是否已写入
func (o *Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// Err 失败原因；成功时为 nil
func (o *Outcome) Err() error {
	switch o.Kind {
	case OutcomeParseFailure:
		return o.ParseError
	case OutcomeValidationFailure:
		return validator.Result{Errors: o.ValidationErrors}.Err()
	case OutcomeDuplicate, OutcomeStoreFailure:
		return o.StoreError
	}
	return nil
}

// WarningMessages 提醒文本
func (o *Outcome) WarningMessages() []string {
	out := make([]string, 0, len(o.Warnings))
	for _, w := range o.Warnings {
		out = append(out, w.String())
	}
	return out
}

// Message 面向操作人员的一句话结果
func (o *Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		msg := fmt.Sprintf("已写入第 %d 行", o.Row)
		if o.DuplicateRow > 0 {
			msg += fmt.Sprintf("（第 %d 行已有同日期数据，已保留）", o.DuplicateRow)
		}
		return msg
	case OutcomeDuplicate:
		return fmt.Sprintf("日期 %s 已存在于第 %d 行，未写入", o.Record.Date(), o.DuplicateRow)
	case OutcomeParseFailure:
		return "解析失败: " + o.ParseError.Error()
	case OutcomeValidationFailure:
		msgs := make([]string, 0, len(o.ValidationErrors))
		for _, e := range o.ValidationErrors {
			msgs = append(msgs, e.Error())
		}
		return "校验失败: " + strings.Join(msgs, "; ")
	case OutcomeStoreFailure:
		msg := "写入失败: " + o.StoreError.Error()
		if o.Backup != nil {
			msg += "（写入前备份: " + o.Backup.Path + "）"
		}
		return msg
	default:
		return string(o.Kind)
	}
}
