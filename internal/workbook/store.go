package workbook

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"dailyledger/internal/backup"
	"dailyledger/internal/model"
)

// Snapshotter 写入前创建完整备份
type Snapshotter interface {
	Snapshot(path string) (backup.Handle, error)
}

// Options 工作簿存储配置
type Options struct {
	Sheet        string
	FirstDataRow RowIndex
	// Styles 为空时使用默认样式
	Styles *StyleSheet
	// StyleReferenceRow 大于 0 时在初始化阶段从该行读取样式
	StyleReferenceRow RowIndex
	Backup            Snapshotter
}

// AppendResult 追加成功的结果
type AppendResult struct {
	Row    RowIndex      `json:"row"`
	Backup backup.Handle `json:"backup"`
	// Duplicate 强制追加时已存在的同日期行
	Duplicate RowIndex `json:"duplicate,omitempty"`
}

// Row 公式视图读出的一行
type Row struct {
	Index    RowIndex                     `json:"row"`
	Date     string                       `json:"date"`
	Values   map[model.Field]model.Amount `json:"-"`
	Formulas map[model.Total]string       `json:"-"`
}

// Store 每日数据工作簿
//
// 每次操作单独打开文件；同一 Store 上的写入串行执行。
type Store struct {
	path   string
	sheet  string
	first  RowIndex
	styles StyleSheet
	backup Snapshotter
	mu     sync.Mutex
}

// New 创建工作簿存储
func New(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("工作簿路径为空")
	}
	if opts.Backup == nil {
		return nil, fmt.Errorf("未配置备份")
	}
	s := &Store{
		path:   path,
		sheet:  opts.Sheet,
		first:  opts.FirstDataRow,
		styles: DefaultStyleSheet(),
		backup: opts.Backup,
	}
	if s.sheet == "" {
		s.sheet = DefaultSheet
	}
	if s.first <= 0 {
		s.first = DefaultFirstDataRow
	}
	if opts.Styles != nil {
		s.styles = *opts.Styles
	}
	if opts.StyleReferenceRow > 0 {
		seeded, err := s.seedStyles(opts.StyleReferenceRow)
		if err != nil {
			return nil, err
		}
		s.styles = seeded
	}
	return s, nil
}

func (s *Store) seedStyles(row RowIndex) (StyleSheet, error) {
	sess, err := openSession(s.path, s.sheet, s.first, false)
	if err != nil {
		return StyleSheet{}, err
	}
	defer sess.close()
	return SeedStyleSheet(sess.file, s.sheet, row)
}

// Path 工作簿路径
func (s *Store) Path() string {
	return s.path
}

// Sheet 每日数据工作表名
func (s *Store) Sheet() string {
	return s.sheet
}

// Styles 当前使用的样式表
func (s *Store) Styles() StyleSheet {
	return s.styles
}

// Append 追加一行
//
// 顺序：打开（检测占用）→ 定位追加行 → 查重 → 备份 → 写入 → 原子保存。
// 任一步失败都不会改动原文件；已存在的行永远不会被覆盖。
func (s *Store) Append(rec model.DailyRecord, policy DuplicatePolicy) (AppendResult, error) {
	if !policy.Valid() {
		return AppendResult{}, ErrDuplicatePolicyRequired
	}
	if rec.Date().IsZero() {
		return AppendResult{}, fmt.Errorf("记录缺少日期")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger := log.WithFields(log.Fields{"path": s.path, "date": rec.Date().String()})

	sess, err := openSession(s.path, s.sheet, s.first, true)
	if err != nil {
		return AppendResult{}, err
	}
	defer sess.close()

	target, err := sess.appendPoint()
	if err != nil {
		return AppendResult{}, err
	}

	var result AppendResult
	dup, found, err := sess.findDate(rec.Date().String())
	if err != nil {
		return AppendResult{}, err
	}
	if found {
		if policy == DuplicateAbort {
			logger.WithField("row", dup).Info("日期已存在，放弃写入")
			return AppendResult{}, &StoreError{Kind: KindDuplicateDate, Row: dup, Path: s.path}
		}
		logger.WithField("row", dup).Warn("日期已存在，按要求追加为新行")
		result.Duplicate = dup
	}

	handle, err := s.backup.Snapshot(s.path)
	if err != nil {
		return AppendResult{}, storeError(KindBackupFailed, s.path, err)
	}
	result.Backup = handle
	logger.WithField("backup", handle.Path).Debug("备份完成")

	if err := s.writeRow(sess.file, target, rec); err != nil {
		serr := storeError(KindCorruptWorkbook, s.path, err)
		serr.Backup = &handle
		return AppendResult{}, serr
	}
	if err := sess.persist(); err != nil {
		logger.WithError(err).Error("保存失败，原文件未改动")
		var serr *StoreError
		if errors.As(err, &serr) {
			serr.Backup = &handle
		}
		return AppendResult{}, err
	}

	result.Row = target
	logger.WithField("row", target).Info("已追加")
	return result, nil
}

// writeRow 在内存中写入整行：日期为文本，未填报字段留空，合计写公式
func (s *Store) writeRow(f *excelize.File, row RowIndex, rec model.DailyRecord) error {
	ids, err := s.styles.register(f)
	if err != nil {
		return err
	}
	for _, c := range columns {
		cell := cellName(c.Name, row)
		switch c.Kind {
		case KindDate:
			err = f.SetCellStr(s.sheet, cell, rec.Date().String())
		case KindLiteral:
			err = f.SetCellValue(s.sheet, cell, rec.Value(c.Field).CellValue())
		case KindComputed:
			err = f.SetCellFormula(s.sheet, cell, Formula(c.Total, row))
		}
		if err != nil {
			return fmt.Errorf("写入 %s 失败: %w", cell, err)
		}
		if err := f.SetCellStyle(s.sheet, cell, cell, ids[c.Group]); err != nil {
			return fmt.Errorf("设置 %s 样式失败: %w", cell, err)
		}
	}
	return nil
}

// FindByDate 查找日期所在的第一行
func (s *Store) FindByDate(date model.Date) (RowIndex, bool, error) {
	sess, err := openSession(s.path, s.sheet, s.first, false)
	if err != nil {
		return 0, false, err
	}
	defer sess.close()
	return sess.findDate(date.String())
}

// NextRow 下一次追加将写入的行
func (s *Store) NextRow() (RowIndex, error) {
	sess, err := openSession(s.path, s.sheet, s.first, false)
	if err != nil {
		return 0, err
	}
	defer sess.close()
	return sess.appendPoint()
}

// ReadRow 公式视图读取一行：录入值与公式原文
func (s *Store) ReadRow(row RowIndex) (Row, error) {
	sess, err := openSession(s.path, s.sheet, s.first, false)
	if err != nil {
		return Row{}, err
	}
	defer sess.close()
	return sess.readRow(row)
}

// Rows 公式视图读取全部数据行
func (s *Store) Rows() ([]Row, error) {
	sess, err := openSession(s.path, s.sheet, s.first, false)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	occupied, err := sess.occupied()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(occupied))
	for _, r := range occupied {
		row, err := sess.readRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *session) readRow(row RowIndex) (Row, error) {
	if row < s.first {
		return Row{}, fmt.Errorf("第 %d 行不在数据区", row)
	}
	out := Row{
		Index:    row,
		Values:   make(map[model.Field]model.Amount),
		Formulas: make(map[model.Total]string),
	}
	raw := excelize.Options{RawCellValue: true}
	for _, c := range columns {
		cell := cellName(c.Name, row)
		switch c.Kind {
		case KindDate:
			v, err := s.file.GetCellValue(s.sheet, cell)
			if err != nil {
				return Row{}, storeError(KindCorruptWorkbook, s.path, err)
			}
			out.Date = v
		case KindLiteral:
			v, err := s.file.GetCellValue(s.sheet, cell, raw)
			if err != nil {
				return Row{}, storeError(KindCorruptWorkbook, s.path, err)
			}
			amount, err := model.ParseAmount(v)
			if err != nil {
				return Row{}, storeError(KindCorruptWorkbook, s.path, fmt.Errorf("%s: %w", cell, err))
			}
			if amount.IsPresent() {
				out.Values[c.Field] = amount
			}
		case KindComputed:
			v, err := s.file.GetCellFormula(s.sheet, cell)
			if err != nil {
				return Row{}, storeError(KindCorruptWorkbook, s.path, err)
			}
			out.Formulas[c.Total] = v
		}
	}
	return out, nil
}

// Record 把公式视图的一行还原为记录
func (r Row) Record() (model.DailyRecord, error) {
	d, err := model.ParseDate(r.Date)
	if err != nil {
		return model.DailyRecord{}, err
	}
	return model.NewDailyRecord(d, r.Values), nil
}
