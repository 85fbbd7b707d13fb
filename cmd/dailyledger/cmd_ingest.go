package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dailyledger/internal/importer"
	"dailyledger/internal/summary"
	"dailyledger/internal/util"
	"dailyledger/internal/workbook"
)

var (
	ingestOnDuplicate string
	ingestDryRun      bool
	ingestOpen        bool
)

// errIngestFailed 导入未写入；详情已输出
var errIngestFailed = errors.New("日报未写入")

var ingestCmd = &cobra.Command{
	Use:   "ingest [file|-]",
	Short: "导入一份日报",
	Long: `解析日报文本，校验通过后追加到工作簿。

不指定文件或指定 "-" 时从标准输入读取。
--on-duplicate 控制日期已存在时的处理方式：abort（放弃）或 append（追加为新行）。`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOnDuplicate, "on-duplicate", "", "日期重复时的处理方式: abort / append (默认取配置)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "只解析、校验并查重，不写入")
	ingestCmd.Flags().BoolVar(&ingestOpen, "open", false, "写入成功后打开工作簿")
}

// readReport 读取日报文本与来源名
func readReport(in io.Reader, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("读取日报失败: %w", err)
	}
	return string(data), filepath.Base(args[0]), nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	text, name, err := readReport(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("日报内容为空")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if ingestDryRun {
		return printPreview(out, a, text)
	}

	policy := a.cfg.DuplicatePolicy()
	if ingestOnDuplicate != "" {
		if policy, err = workbook.ParseDuplicatePolicy(ingestOnDuplicate); err != nil {
			return err
		}
	}

	outcome, err := a.pipeline.Ingest(text, policy, importer.Source{Kind: "cli", Name: name})
	if err != nil {
		return err
	}

	if outcome.Record != nil {
		printMarkdown(out, summary.Markdown(*outcome.Record, outcome.Warnings))
	}
	fmt.Fprintln(out, outcome.Message())
	if outcome.Backup != nil {
		fmt.Fprintf(out, "备份: %s\n", outcome.Backup.Path)
	}
	if !outcome.Succeeded() {
		return errIngestFailed
	}

	if ingestOpen {
		if err := util.OpenFileWithFallback(a.ledger.Path()); err != nil {
			fmt.Fprintf(out, "无法自动打开，请手动打开: %s\n", a.ledger.Path())
		}
	}
	return nil
}

func printPreview(out io.Writer, a *app, text string) error {
	preview, err := a.pipeline.Preview(text)
	if err != nil {
		return err
	}
	printMarkdown(out, summary.Markdown(preview.Report.Record, preview.Warnings))

	for _, e := range preview.ValidationErrors {
		fmt.Fprintf(out, "校验失败: %s\n", e.Error())
	}
	if preview.DuplicateRow > 0 {
		fmt.Fprintf(out, "日期 %s 已存在于第 %d 行\n", preview.Report.Record.Date(), preview.DuplicateRow)
	}
	if preview.WouldWrite() {
		fmt.Fprintf(out, "预览通过，将写入第 %d 行\n", preview.NextRow)
		return nil
	}
	return errIngestFailed
}
