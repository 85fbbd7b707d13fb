package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// maxCollisions 同一秒内允许的备份数量
const maxCollisions = 99

// Handle 一次备份的结果
type Handle struct {
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int64     `json:"size"`
}

// Manager 备份管理器：每次写入前把整个工作簿复制到同目录
//
// 备份不做清理，失败即返回错误（调用方必须中止写入）。
type Manager struct {
	now func() time.Time
}

// Option 备份选项
type Option func(*Manager)

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager 创建备份管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name 备份文件名：<原文件名>_backup_<YYYYMMDD>_<HHMMSS><扩展名>
func Name(path string, at time.Time) string {
	stem, ext := splitName(path)
	return fmt.Sprintf("%s_backup_%s%s", stem, at.Format(timestampLayout), ext)
}

// Snapshot 复制 path 到同目录下带时间戳的备份文件
func (m *Manager) Snapshot(path string) (Handle, error) {
	src, err := os.Open(path)
	if err != nil {
		return Handle{}, fmt.Errorf("创建备份失败: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return Handle{}, fmt.Errorf("创建备份失败: %w", err)
	}
	if info.IsDir() {
		return Handle{}, fmt.Errorf("创建备份失败: %s 是目录", path)
	}

	now := m.now()
	dst, dstPath, err := createTarget(path, now, info.Mode().Perm())
	if err != nil {
		return Handle{}, fmt.Errorf("创建备份失败: %w", err)
	}

	n, err := io.Copy(dst, src)
	if err == nil {
		err = syncFile(dst)
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n != info.Size() {
		err = fmt.Errorf("备份大小不一致: %d != %d", n, info.Size())
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return Handle{}, fmt.Errorf("创建备份失败: %w", err)
	}

	// 与 copy2 一致保留修改时间
	_ = os.Chtimes(dstPath, info.ModTime(), info.ModTime())

	return Handle{
		Path:      dstPath,
		Source:    path,
		CreatedAt: now,
		Size:      n,
	}, nil
}

// List 列出某工作簿的全部备份（新的在前）
func (m *Manager) List(path string) ([]string, error) {
	stem, ext := splitName(path)
	pattern := filepath.Join(filepath.Dir(path), globEscape(stem)+"_backup_*"+globEscape(ext))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// createTarget 以 O_EXCL 创建备份文件；同一秒内重复备份时追加序号
func createTarget(path string, at time.Time, perm fs.FileMode) (*os.File, string, error) {
	dir := filepath.Dir(path)
	base := Name(path, at)
	stem, ext := splitName(base)

	for i := 1; i <= maxCollisions; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		target := filepath.Join(dir, name)
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|0200)
		if err == nil {
			return f, target, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("同一时间的备份过多: %s", base)
}

func splitName(path string) (stem, ext string) {
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

var syncFile = func(f *os.File) error { return f.Sync() }
