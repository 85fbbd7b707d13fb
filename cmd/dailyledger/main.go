package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局参数
	configPath   string
	workbookPath string
	verbose      bool
	renderStyle  string
)

var rootCmd = &cobra.Command{
	Use:   "dailyledger",
	Short: "每日销售日报入账工具",
	Long: `把固定模板的每日销售日报解析、校验后追加到财务跟踪表（xlsx）。

写入前会自动备份工作簿；日期重复时默认放弃写入，已有的行永远不会被覆盖。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (默认: 可执行文件同目录下的 config.toml)")
	rootCmd.PersistentFlags().StringVarP(&workbookPath, "workbook", "w", "", "工作簿路径 (覆盖配置文件)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	rootCmd.PersistentFlags().StringVar(&renderStyle, "style", "", "终端渲染样式 (dark / light / notty，默认自动)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
