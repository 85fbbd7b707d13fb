package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"dailyledger/internal/model"
	"dailyledger/internal/parser"
	"dailyledger/internal/store"
	"dailyledger/internal/validator"
	"dailyledger/internal/workbook"
)

// Ledger 工作簿写入与查询
type Ledger interface {
	Append(rec model.DailyRecord, policy workbook.DuplicatePolicy) (workbook.AppendResult, error)
	FindByDate(date model.Date) (workbook.RowIndex, bool, error)
	NextRow() (workbook.RowIndex, error)
}

// Journal 导入日志
type Journal interface {
	CreateIngestion(source, sourceName, textHash, policy string) (string, error)
	CompleteIngestion(id string, r store.IngestionResult) error
	RecordLastSuccess(date string, row int) error
}

// Pipeline 日报导入流程：解析 → 校验 → 查重 → 备份 → 写入
//
// 一次 Ingest 是一个完整事务；同一 Pipeline 上的导入串行执行。
type Pipeline struct {
	mu        sync.Mutex
	ledger    Ledger
	validator *validator.Validator
	journal   Journal
	now       func() time.Time
}

// Option 流程选项
type Option func(*Pipeline)

// WithJournal 记录每次导入尝试
func WithJournal(j Journal) Option {
	return func(p *Pipeline) {
		p.journal = j
	}
}

// WithClock 替换事件时间来源
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline 创建导入流程
func NewPipeline(ledger Ledger, v *validator.Validator, opts ...Option) *Pipeline {
	p := &Pipeline{
		ledger:    ledger,
		validator: v,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest 导入一份日报
//
// 只有未给出重复日期处理方式时返回 error；其余结果都在 Outcome 中。
func (p *Pipeline) Ingest(text string, policy workbook.DuplicatePolicy, src Source) (*Outcome, error) {
	return p.ingest(text, policy, src, nil)
}

type transaction struct {
	outcome *Outcome
	logger  *log.Entry
	emit    func(ProgressEvent)
	now     func() time.Time
}

func (t *transaction) advance(s State) {
	t.outcome.State = s
	t.outcome.Trace = append(t.outcome.Trace, s)
	t.logger.WithField("state", s).Debug("状态变更")
	if t.emit != nil {
		t.emit(ProgressEvent{Type: "state", State: s, Message: string(s), Timestamp: t.now()})
	}
}

func (t *transaction) fail(kind OutcomeKind) *Outcome {
	t.outcome.Kind = kind
	t.outcome.State = StateFailed
	t.outcome.Trace = append(t.outcome.Trace, StateFailed)
	return t.outcome
}

func (p *Pipeline) ingest(text string, policy workbook.DuplicatePolicy, src Source, emit func(ProgressEvent)) (*Outcome, error) {
	if !policy.Valid() {
		return nil, workbook.ErrDuplicatePolicyRequired
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tx := &transaction{
		outcome: &Outcome{},
		logger:  log.WithFields(log.Fields{"source": src.Kind, "name": src.Name, "policy": policy.String()}),
		emit:    emit,
		now:     p.now,
	}
	tx.outcome.AttemptID = p.beginJournal(text, policy, src)
	if tx.outcome.AttemptID != "" {
		tx.logger = tx.logger.WithField("attempt", tx.outcome.AttemptID)
	}

	outcome := p.run(tx, text, policy)
	p.finishJournal(outcome)

	entry := tx.logger.WithFields(log.Fields{"outcome": outcome.Kind, "row": outcome.Row})
	if outcome.Succeeded() {
		entry.Info(outcome.Message())
	} else {
		entry.Warn(outcome.Message())
	}
	return outcome, nil
}

func (p *Pipeline) run(tx *transaction, text string, policy workbook.DuplicatePolicy) *Outcome {
	tx.advance(StateReceived)

	report, err := parser.Parse(text)
	if err != nil {
		var perr *parser.ParseError
		if !errors.As(err, &perr) {
			perr = &parser.ParseError{Reason: err.Error()}
		}
		tx.outcome.ParseError = perr
		return tx.fail(OutcomeParseFailure)
	}
	rec := report.Record
	tx.outcome.Record = &rec
	tx.outcome.Ignored = report.Ignored
	tx.logger = tx.logger.WithField("date", rec.Date().String())
	tx.advance(StateParsed)

	result := p.validator.Validate(rec, report.Declared)
	tx.outcome.Warnings = result.Warnings
	for _, w := range result.Warnings {
		tx.logger.WithField("warning", w.Kind.String()).Warn(w.String())
		if tx.emit != nil {
			tx.emit(ProgressEvent{Type: "warning", Message: w.String(), Timestamp: tx.now()})
		}
	}
	if !result.OK() {
		tx.outcome.ValidationErrors = result.Errors
		return tx.fail(OutcomeValidationFailure)
	}
	tx.advance(StateValidated)

	appended, err := p.ledger.Append(rec, policy)
	if err != nil {
		var serr *workbook.StoreError
		if !errors.As(err, &serr) {
			serr = &workbook.StoreError{Kind: workbook.KindCorruptWorkbook, Err: err}
		}
		tx.outcome.StoreError = serr
		// 按失败的步骤补齐已经到达的状态
		switch {
		case serr.Backup != nil:
			tx.advance(StateDuplicateChecked)
			tx.advance(StateBackedUp)
			tx.outcome.Backup = serr.Backup
		case serr.Kind == workbook.KindBackupFailed:
			tx.advance(StateDuplicateChecked)
		}
		if serr.Kind == workbook.KindDuplicateDate {
			tx.outcome.DuplicateRow = serr.Row
			return tx.fail(OutcomeDuplicate)
		}
		return tx.fail(OutcomeStoreFailure)
	}

	tx.advance(StateDuplicateChecked)
	tx.advance(StateBackedUp)
	backupHandle := appended.Backup
	tx.outcome.Backup = &backupHandle
	tx.outcome.Row = appended.Row
	tx.outcome.DuplicateRow = appended.Duplicate
	tx.advance(StateInserted)
	tx.outcome.Kind = OutcomeSuccess
	return tx.outcome
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// beginJournal 日志写入失败只记录，不影响导入
func (p *Pipeline) beginJournal(text string, policy workbook.DuplicatePolicy, src Source) string {
	if p.journal == nil {
		return ""
	}
	id, err := p.journal.CreateIngestion(src.Kind, src.Name, textHash(text), policy.String())
	if err != nil {
		log.WithError(err).Warn("写入导入日志失败")
		return ""
	}
	return id
}

func (p *Pipeline) finishJournal(o *Outcome) {
	if p.journal == nil || o.AttemptID == "" {
		return
	}
	r := store.IngestionResult{
		State:        string(o.State),
		Outcome:      string(o.Kind),
		Row:          int(o.Row),
		DuplicateRow: int(o.DuplicateRow),
		Warnings:     o.WarningMessages(),
	}
	if o.Record != nil {
		r.RecordDate = o.Record.Date().String()
	}
	if o.Backup != nil {
		r.BackupPath = o.Backup.Path
	}
	if err := o.Err(); err != nil {
		r.ErrorMessage = err.Error()
	}
	if err := p.journal.CompleteIngestion(o.AttemptID, r); err != nil {
		log.WithError(err).WithField("attempt", o.AttemptID).Warn("更新导入日志失败")
	}
	if o.Succeeded() {
		if err := p.journal.RecordLastSuccess(r.RecordDate, r.Row); err != nil {
			log.WithError(err).Warn("记录最近写入失败")
		}
	}
}

// Preview 试运行：解析、校验并查重，不做任何写入
func (p *Pipeline) Preview(text string) (*PreviewResult, error) {
	if err := parser.CheckStructure(text); err != nil {
		return nil, err
	}
	report, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	result := p.validator.Validate(report.Record, report.Declared)

	out := &PreviewResult{
		Report:           report,
		Totals:           model.ComputeTotals(report.Record),
		Warnings:         result.Warnings,
		ValidationErrors: result.Errors,
	}
	row, found, err := p.ledger.FindByDate(report.Record.Date())
	if err != nil {
		return nil, fmt.Errorf("查询工作簿失败: %w", err)
	}
	if found {
		out.DuplicateRow = row
	}
	next, err := p.ledger.NextRow()
	if err != nil {
		return nil, fmt.Errorf("查询工作簿失败: %w", err)
	}
	out.NextRow = next
	return out, nil
}
