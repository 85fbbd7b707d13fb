package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dailyledger/internal/api"
	"dailyledger/internal/server"
	"dailyledger/internal/watcher"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "监听收件目录，自动导入放入的 .txt 日报",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "监听端口 (覆盖配置文件)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "同时监听收件目录")
}

func printBanner(title string) {
	fmt.Println("========================================")
	fmt.Println("  " + title)
	fmt.Println("========================================")
}

// waitForSignal 阻塞直到收到退出信号
func waitForSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	return <-quit
}

// startWatcher 按配置启动收件目录监听
func startWatcher(ctx context.Context, a *app) (*watcher.Watcher, error) {
	inbox, processed, failed := a.cfg.WatchDirs()
	w, err := watcher.New(a.pipeline, a.cfg.DuplicatePolicy(), inbox, processed, failed)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if servePort > 0 {
		a.cfg.Server.Port = servePort
	}

	printBanner("DailyLedger - 每日销售日报入账")
	fmt.Printf("工作簿: %s\n", a.ledger.Path())
	fmt.Printf("导入日志: %s\n", a.cfg.JournalPath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if serveWatch {
		w, err := startWatcher(ctx, a)
		if err != nil {
			return err
		}
		defer w.Stop()
		inbox, _, _ := a.cfg.WatchDirs()
		fmt.Printf("收件目录: %s\n", inbox)
	}

	handler := api.NewHandler(a.pipeline, a.ledger, a.journal, a.backups, a.cfg.DuplicatePolicy())
	srv := server.NewServer(a.cfg, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()
	fmt.Printf("服务已启动: http://localhost:%d\n", a.cfg.Server.Port)
	fmt.Println("按 Ctrl+C 停止服务")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("正在关闭服务器")
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务器失败: %w", err)
	}
	fmt.Println("服务已停止")
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := startWatcher(ctx, a)
	if err != nil {
		return err
	}

	inbox, processed, failed := a.cfg.WatchDirs()
	printBanner("DailyLedger - 收件目录监听")
	fmt.Printf("工作簿: %s\n", a.ledger.Path())
	fmt.Printf("收件目录: %s\n", inbox)
	fmt.Printf("已处理: %s\n失败: %s\n", processed, failed)
	fmt.Printf("重复日期: %s\n", a.cfg.DuplicatePolicy())
	fmt.Println("按 Ctrl+C 停止")

	sig := waitForSignal()
	log.WithField("signal", sig.String()).Info("停止监听")
	w.Stop()

	stats := w.Stats()
	fmt.Printf("共处理 %d 个文件：成功 %d，失败 %d\n", stats.Processed, stats.Succeeded, stats.Failed)
	return nil
}
