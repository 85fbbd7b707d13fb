package main

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"dailyledger/internal/backup"
	"dailyledger/internal/config"
	"dailyledger/internal/importer"
	"dailyledger/internal/store"
	"dailyledger/internal/summary"
	"dailyledger/internal/validator"
	"dailyledger/internal/workbook"
)

// app 一次命令执行所需的组件
type app struct {
	cfg      *config.AppConfig
	backups  *backup.Manager
	ledger   *workbook.Store
	journal  *store.Store
	pipeline *importer.Pipeline
}

// loadConfig 读取配置并应用全局参数
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if workbookPath != "" {
		cfg.Workbook.Path = workbookPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// storeOptions 工作簿布局配置；init 与读写共用
func storeOptions(cfg *config.AppConfig) workbook.Options {
	return workbook.Options{
		Sheet:             cfg.Workbook.Sheet,
		FirstDataRow:      workbook.RowIndex(cfg.Workbook.FirstDataRow),
		StyleReferenceRow: workbook.RowIndex(cfg.Workbook.StyleReferenceRow),
	}
}

// newApp 组装工作簿、备份、导入日志与导入流程
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := config.EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	backups := backup.NewManager()
	opts := storeOptions(cfg)
	opts.Backup = backups
	ledger, err := workbook.New(cfg.WorkbookPath(), opts)
	if err != nil {
		return nil, err
	}

	journal, err := store.New(cfg.JournalPath())
	if err != nil {
		return nil, err
	}

	v := validator.New(cfg.ValidatorPolicy())
	log.WithFields(log.Fields{"workbook": cfg.WorkbookPath(), "journal": cfg.JournalPath()}).Debug("初始化完成")

	return &app{
		cfg:      cfg,
		backups:  backups,
		ledger:   ledger,
		journal:  journal,
		pipeline: importer.NewPipeline(ledger, v, importer.WithJournal(journal)),
	}, nil
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		log.WithError(err).Warn("关闭导入日志失败")
	}
}

// printMarkdown 渲染 Markdown；渲染失败时输出原文
func printMarkdown(w io.Writer, md string) {
	out, err := summary.Render(md, renderStyle, 80)
	if err != nil {
		out = md
	}
	fmt.Fprint(w, out)
}
