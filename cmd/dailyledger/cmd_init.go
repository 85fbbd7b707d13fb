package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dailyledger/internal/config"
	"dailyledger/internal/util"
	"dailyledger/internal/workbook"
)

var initOpen bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "创建空白财务跟踪表与数据目录",
	Long: `按固定列布局创建新的工作簿：每日数据表（表头、列宽、冻结窗格）与月度汇总表。

工作簿已存在时不会覆盖。`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initOpen, "open", false, "创建后用系统默认程序打开")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("创建数据目录失败: %w", err)
	}

	path := cfg.WorkbookPath()
	if err := workbook.Create(path, storeOptions(cfg)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "工作簿: %s (工作表: %s)\n", path, cfg.Workbook.Sheet)
	fmt.Fprintf(out, "数据目录: %s\n", dataDir)

	if initOpen {
		if err := util.OpenFileWithFallback(path); err != nil {
			fmt.Fprintf(out, "无法自动打开，请手动打开: %s\n", path)
		}
	}
	return nil
}
