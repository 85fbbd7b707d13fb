package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// session 一次打开的工作簿；写入会话只用于保留公式的写入
type session struct {
	path  string
	sheet string
	first RowIndex
	file  *excelize.File
	mode  fs.FileMode
}

// renameFile 便于测试保存失败
var renameFile = os.Rename

// lockFileNames Excel 与 LibreOffice 打开文件时生成的占用标记
func lockFileNames(path string) []string {
	dir, base := filepath.Split(path)
	names := []string{
		filepath.Join(dir, "~$"+base),
		filepath.Join(dir, ".~lock."+base+"#"),
	}
	if r := []rune(base); len(r) > 2 {
		names = append(names, filepath.Join(dir, "~$"+string(r[2:])))
	}
	return names
}

// checkLocked 检测工作簿是否正被其他程序打开
func checkLocked(path string) error {
	for _, name := range lockFileNames(path) {
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("检测到占用标记 %s", filepath.Base(name))
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return err
		}
		return nil
	}
	return f.Close()
}

func openSession(path, sheet string, first RowIndex, write bool) (*session, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storeError(KindFileMissing, path, err)
		}
		return nil, storeError(KindCorruptWorkbook, path, err)
	}
	if info.IsDir() {
		return nil, storeError(KindCorruptWorkbook, path, fmt.Errorf("%s 是目录", path))
	}
	if write {
		if err := checkLocked(path); err != nil {
			return nil, storeError(KindFileLocked, path, err)
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, storeError(KindCorruptWorkbook, path, err)
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		_ = f.Close()
		return nil, storeError(KindCorruptWorkbook, path, fmt.Errorf("缺少工作表 %q", sheet))
	}
	return &session{path: path, sheet: sheet, first: first, file: f, mode: info.Mode().Perm()}, nil
}

func (s *session) close() {
	_ = s.file.Close()
}

// lastRow 工作表中最后一行（含只有样式的行）
func (s *session) lastRow() (RowIndex, error) {
	rows, err := s.file.GetRows(s.sheet)
	if err != nil {
		return 0, storeError(KindCorruptWorkbook, s.path, err)
	}
	return RowIndex(len(rows)), nil
}

func (s *session) dateAt(row RowIndex) (string, error) {
	v, err := s.file.GetCellValue(s.sheet, cellName(DateColumn(), row))
	if err != nil {
		return "", storeError(KindCorruptWorkbook, s.path, err)
	}
	return strings.TrimSpace(v), nil
}

// appendPoint 第一个日期为空的行；其后若还有日期则视为结构损坏
func (s *session) appendPoint() (RowIndex, error) {
	last, err := s.lastRow()
	if err != nil {
		return 0, err
	}

	target := RowIndex(0)
	for r := s.first; r <= last; r++ {
		v, err := s.dateAt(r)
		if err != nil {
			return 0, err
		}
		if v == "" {
			target = r
			break
		}
	}
	if target == 0 {
		if last+1 > s.first {
			return last + 1, nil
		}
		return s.first, nil
	}

	for r := target + 1; r <= last; r++ {
		v, err := s.dateAt(r)
		if err != nil {
			return 0, err
		}
		if v != "" {
			return 0, storeError(KindCorruptWorkbook, s.path,
				fmt.Errorf("第 %d 行日期为空但第 %d 行仍有数据", target, r))
		}
	}
	return target, nil
}

// occupied 数据区中已有日期的行
func (s *session) occupied() ([]RowIndex, error) {
	last, err := s.lastRow()
	if err != nil {
		return nil, err
	}
	var rows []RowIndex
	for r := s.first; r <= last; r++ {
		v, err := s.dateAt(r)
		if err != nil {
			return nil, err
		}
		if v == "" {
			break
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// findDate 按日期字符串精确匹配，返回第一处
func (s *session) findDate(date string) (RowIndex, bool, error) {
	rows, err := s.occupied()
	if err != nil {
		return 0, false, err
	}
	for _, r := range rows {
		v, err := s.dateAt(r)
		if err != nil {
			return 0, false, err
		}
		if v == date {
			return r, true, nil
		}
	}
	return 0, false, nil
}

// persist 写入同目录临时文件后重命名覆盖，原文件要么完整保留要么被完整替换
func (s *session) persist() error {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return storeError(KindSaveFailed, s.path, err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return storeError(KindSaveFailed, s.path, err)
	}

	if _, err := s.file.WriteTo(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return storeError(KindSaveFailed, s.path, err)
	}
	if err := os.Chmod(tmpName, s.mode); err != nil {
		_ = os.Remove(tmpName)
		return storeError(KindSaveFailed, s.path, err)
	}
	if err := renameFile(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return storeError(KindSaveFailed, s.path, err)
	}
	return nil
}
