package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"dailyledger/internal/importer"
	"dailyledger/internal/workbook"
)

// Ingester 日报导入
type Ingester interface {
	Ingest(text string, policy workbook.DuplicatePolicy, src importer.Source) (*importer.Outcome, error)
}

// Stats 监听统计
type Stats struct {
	Processed int
	Succeeded int
	Failed    int
	Errors    int
	LastFile  string
	LastKind  importer.OutcomeKind
}

// Watcher 监听收件目录中的 .txt 日报，逐个导入
//
// 导入成功的文件移到 processed，其余移到 failed；文件按停止写入后的先后顺序串行处理。
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	ingester    Ingester
	policy      workbook.DuplicatePolicy
	inbox       string
	processed   string
	failed      string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
	now         func() time.Time
}

// Option 监听选项
type Option func(*Watcher)

// WithDebounce 文件停止变化多久后才处理
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDur = d
		}
	}
}

// New 创建收件目录监听
func New(ingester Ingester, policy workbook.DuplicatePolicy, inbox, processed, failed string, opts ...Option) (*Watcher, error) {
	if !policy.Valid() {
		return nil, workbook.ErrDuplicatePolicyRequired
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:     fw,
		ingester:    ingester,
		policy:      policy,
		inbox:       inbox,
		processed:   processed,
		failed:      failed,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start 开始监听（非阻塞）；收件目录中已有的文件会先排队处理
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range []string{w.inbox, w.processed, w.failed} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			w.abort()
			return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}
	if err := w.watcher.Add(w.inbox); err != nil {
		w.abort()
		return fmt.Errorf("监听 %s 失败: %w", w.inbox, err)
	}
	log.WithField("inbox", w.inbox).Info("开始监听收件目录")

	existing, err := filepath.Glob(filepath.Join(w.inbox, "*.txt"))
	if err == nil {
		w.mu.Lock()
		for _, p := range existing {
			w.debounceMap[p] = time.Time{}
		}
		w.mu.Unlock()
	}

	go w.run(ctx)
	return nil
}

// abort 启动失败时释放资源
func (w *Watcher) abort() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	_ = w.watcher.Close()
}

// Stop 停止监听并等待当前文件处理完
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		log.WithError(err).Error("关闭文件监听失败")
	}
	log.Info("收件目录监听已停止")
}

// Stats 当前统计
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Error("文件监听出错")
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	w.mu.Lock()
	w.debounceMap[event.Name] = w.now()
	w.mu.Unlock()
}

func (w *Watcher) processSettled() {
	w.mu.Lock()
	now := w.now()
	type pending struct {
		path string
		at   time.Time
	}
	var ready []pending
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			ready = append(ready, pending{path, at})
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].at.Equal(ready[j].at) {
			return ready[i].path < ready[j].path
		}
		return ready[i].at.Before(ready[j].at)
	})
	for _, p := range ready {
		w.processFile(p.path)
	}
}

func (w *Watcher) processFile(path string) {
	name := filepath.Base(path)
	logger := log.WithField("file", name)

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Error("读取日报失败")
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		}
		return
	}

	outcome, err := w.ingester.Ingest(string(content), w.policy, importer.Source{Kind: "watch", Name: name})
	target := w.failed
	w.mu.Lock()
	w.stats.Processed++
	w.stats.LastFile = name
	if err != nil {
		w.stats.Failed++
		logger.WithError(err).Error("导入失败")
	} else {
		w.stats.LastKind = outcome.Kind
		if outcome.Succeeded() {
			w.stats.Succeeded++
			target = w.processed
		} else {
			w.stats.Failed++
		}
	}
	w.mu.Unlock()

	dest := filepath.Join(target, w.now().Format("20060102_150405_")+name)
	if err := os.Rename(path, dest); err != nil {
		logger.WithError(err).Error("移动日报文件失败")
		return
	}
	logger.WithField("moved_to", dest).Info("日报已处理")
}
