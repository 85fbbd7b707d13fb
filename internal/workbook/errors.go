package workbook

import (
	"errors"
	"fmt"

	"dailyledger/internal/backup"
)

var (
	ErrDuplicateDate   = errors.New("日期已存在")
	ErrFileLocked      = errors.New("工作簿被其他程序占用")
	ErrFileMissing     = errors.New("工作簿不存在")
	ErrCorruptWorkbook = errors.New("工作簿损坏或结构不符")
	ErrBackupFailed    = errors.New("创建备份失败")
	ErrSaveFailed      = errors.New("保存工作簿失败")

	// ErrDuplicatePolicyRequired 调用方必须显式给出重复日期的处理方式
	ErrDuplicatePolicyRequired = errors.New("duplicate policy is required")
)

// ErrorKind 存储错误类型
type ErrorKind int

const (
	KindDuplicateDate ErrorKind = iota + 1
	KindFileLocked
	KindFileMissing
	KindCorruptWorkbook
	KindBackupFailed
	KindSaveFailed
)

var kindSentinels = map[ErrorKind]error{
	KindDuplicateDate:   ErrDuplicateDate,
	KindFileLocked:      ErrFileLocked,
	KindFileMissing:     ErrFileMissing,
	KindCorruptWorkbook: ErrCorruptWorkbook,
	KindBackupFailed:    ErrBackupFailed,
	KindSaveFailed:      ErrSaveFailed,
}

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicateDate:
		return "duplicate_date"
	case KindFileLocked:
		return "file_locked"
	case KindFileMissing:
		return "file_missing"
	case KindCorruptWorkbook:
		return "corrupt_workbook"
	case KindBackupFailed:
		return "backup_failed"
	case KindSaveFailed:
		return "save_failed"
	default:
		return "unknown"
	}
}

// StoreError 工作簿操作失败
//
// 除 DuplicateDate 外均需人工处理（关闭文件、从备份恢复等）。
type StoreError struct {
	Kind   ErrorKind
	Row    RowIndex       // DuplicateDate 时为已存在的行
	Path   string
	Backup *backup.Handle // 写入或保存阶段失败时为之前完成的备份
	Err    error
}

func (e *StoreError) Error() string {
	msg := kindSentinels[e.Kind].Error()
	if e.Kind == KindDuplicateDate {
		msg = fmt.Sprintf("%s (第 %d 行)", msg, e.Row)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is(err, ErrDuplicateDate) 等判断
func (e *StoreError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

func storeError(kind ErrorKind, path string, err error) *StoreError {
	return &StoreError{Kind: kind, Path: path, Err: err}
}
