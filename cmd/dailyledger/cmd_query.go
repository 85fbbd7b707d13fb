package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dailyledger/internal/backup"
	"dailyledger/internal/model"
	"dailyledger/internal/summary"
	"dailyledger/internal/workbook"
)

var (
	rowsValues   bool
	rowsLimit    int
	historyLimit int
)

var findCmd = &cobra.Command{
	Use:   "find MM-DD",
	Short: "按日期查找工作簿中的行",
	Args:  cobra.ExactArgs(1),
	RunE:  runFind,
}

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "列出已写入的行",
	Args:  cobra.NoArgs,
	RunE:  runRows,
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "列出工作簿备份",
	Args:  cobra.NoArgs,
	RunE:  runBackups,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查看导入记录",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rowsCmd.Flags().BoolVar(&rowsValues, "values", false, "显示公式计算后的合计")
	rowsCmd.Flags().IntVarP(&rowsLimit, "limit", "n", 0, "只显示最后 N 行")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "显示条数")
}

func runFind(cmd *cobra.Command, args []string) error {
	date, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	row, found, err := a.ledger.FindByDate(date)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(out, "未找到 %s\n", date)
		return nil
	}
	r, err := a.ledger.ReadRow(row)
	if err != nil {
		return err
	}
	rec, err := r.Record()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s 位于第 %d 行\n", date, row)
	printMarkdown(out, summary.Markdown(rec, nil))
	return nil
}

func runRows(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var md string
	if rowsValues {
		md, err = valueTable(a.ledger)
	} else {
		md, err = formulaTable(a.ledger)
	}
	if err != nil {
		return err
	}
	printMarkdown(cmd.OutOrStdout(), md)
	return nil
}

func tail[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}

func formulaTable(ledger *workbook.Store) (string, error) {
	rows, err := ledger.Rows()
	if err != nil {
		return "", err
	}
	rows = tail(rows, rowsLimit)

	var b strings.Builder
	b.WriteString("| 行 | 日期 | 已填报 | " + totalHeader() + " |\n")
	b.WriteString("|---:|---|---:|" + strings.Repeat("---|", len(model.AllTotals())) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %d | %s | %d |", r.Index, r.Date, countPresent(r.Values))
		for _, t := range model.AllTotals() {
			fmt.Fprintf(&b, " `=%s` |", r.Formulas[t])
		}
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString("\n（暂无数据）\n")
	}
	return b.String(), nil
}

func valueTable(ledger *workbook.Store) (string, error) {
	view, err := ledger.OpenValueView()
	if err != nil {
		return "", err
	}
	defer view.Close()

	rows, err := view.Rows()
	if err != nil {
		return "", err
	}
	rows = tail(rows, rowsLimit)

	var b strings.Builder
	b.WriteString("| 行 | 日期 | " + totalHeader() + " |\n")
	b.WriteString("|---:|---|" + strings.Repeat("---:|", len(model.AllTotals())) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %d | %s |", r.Index, r.Date)
		for _, t := range model.AllTotals() {
			fmt.Fprintf(&b, " %s |", summary.FormatAmount(r.Totals[t]))
		}
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString("\n（暂无数据）\n")
	}
	return b.String(), nil
}

func totalHeader() string {
	labels := make([]string, 0, len(model.AllTotals()))
	for _, t := range model.AllTotals() {
		labels = append(labels, t.Label())
	}
	return strings.Join(labels, " | ")
}

func countPresent(values map[model.Field]model.Amount) int {
	n := 0
	for _, v := range values {
		if v.IsPresent() {
			n++
		}
	}
	return n
}

func runBackups(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths, err := backup.NewManager().List(cfg.WorkbookPath())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(paths) == 0 {
		fmt.Fprintln(out, "暂无备份")
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.journal.ListIngestions(historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "暂无导入记录")
		return nil
	}

	var b strings.Builder
	b.WriteString("| 时间 | 来源 | 日期 | 结果 | 行 | 说明 |\n|---|---|---|---|---:|---|\n")
	for _, it := range items {
		src := it.Source
		if it.SourceName != "" {
			src += ":" + it.SourceName
		}
		row := ""
		if it.Row > 0 {
			row = fmt.Sprint(it.Row)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			it.StartedAt.Local().Format("2006-01-02 15:04:05"), src, it.RecordDate, it.Outcome, row,
			strings.ReplaceAll(it.ErrorMessage, "|", "/"))
	}
	printMarkdown(out, b.String())
	return nil
}
