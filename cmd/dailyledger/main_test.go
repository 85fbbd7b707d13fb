package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `10月28日销售日报
1. 场地入账金额: 739
大众美团 144
储值卡核销 505
抖音
教练课核销 90
微信
支付宝
2.云店销售:
水
佳得乐
3.体验课:
4. 储值卡充值: 1000
5. 私教课充值:
6. 月卡:
当日总计: 1739`

const testConfig = `[workbook]
path = "ledger.xlsx"

[validation]
reject_future_dates = false

[log]
level = "warn"
`

// setupWorkspace 写入配置并重置全局参数
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(testConfig), 0644))

	configPath = cfgFile
	renderStyle = "notty"
	t.Cleanup(func() {
		configPath = ""
		workbookPath = ""
		renderStyle = ""
		ingestOnDuplicate = ""
		ingestDryRun = false
		rowsValues = false
		historyLimit = 20
	})
	return dir
}

func newTestCmd(in string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(in))
	return cmd, &out
}

func writeReport(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "1028.txt")
	require.NoError(t, os.WriteFile(p, []byte(sampleReport), 0644))
	return p
}

func TestInitCmd(t *testing.T) {
	dir := setupWorkspace(t)

	cmd, out := newTestCmd("")
	require.NoError(t, runInit(cmd, nil))
	assert.FileExists(t, filepath.Join(dir, "ledger.xlsx"))
	assert.DirExists(t, filepath.Join(dir, "data", "inbox"))
	assert.Contains(t, out.String(), "ledger.xlsx")

	// 已存在的工作簿不会被覆盖
	cmd, _ = newTestCmd("")
	assert.Error(t, runInit(cmd, nil))
}

func TestInitCmd_ConfiguredSheetThenIngest(t *testing.T) {
	dir := setupWorkspace(t)
	custom := strings.Replace(testConfig, `path = "ledger.xlsx"`, "path = \"ledger.xlsx\"\nsheet = \"Daily\"\nfirst_data_row = 4", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(custom), 0644))

	cmd, out := newTestCmd("")
	require.NoError(t, runInit(cmd, nil))
	assert.Contains(t, out.String(), "Daily")

	cmd, out = newTestCmd(sampleReport)
	require.NoError(t, runIngest(cmd, nil))
	assert.Contains(t, out.String(), "已写入第 4 行")
}

func TestIngestCmd_AppendThenDuplicate(t *testing.T) {
	dir := setupWorkspace(t)
	cmd, _ := newTestCmd("")
	require.NoError(t, runInit(cmd, nil))
	report := writeReport(t, dir)

	cmd, out := newTestCmd("")
	require.NoError(t, runIngest(cmd, []string{report}))
	assert.Contains(t, out.String(), "已写入第 3 行")
	assert.Contains(t, out.String(), "备份:")

	before, err := os.ReadFile(filepath.Join(dir, "ledger.xlsx"))
	require.NoError(t, err)

	cmd, out = newTestCmd("")
	err = runIngest(cmd, []string{report})
	assert.ErrorIs(t, err, errIngestFailed)
	assert.Contains(t, out.String(), "已存在于第 3 行")

	after, err := os.ReadFile(filepath.Join(dir, "ledger.xlsx"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(before, after), "duplicate must not touch the workbook")
}

func TestIngestCmd_ForceAppendFromStdin(t *testing.T) {
	setupWorkspace(t)
	cmd, _ := newTestCmd("")
	require.NoError(t, runInit(cmd, nil))

	cmd, _ = newTestCmd(sampleReport)
	require.NoError(t, runIngest(cmd, []string{"-"}))

	ingestOnDuplicate = "append"
	cmd, out := newTestCmd(sampleReport)
	require.NoError(t, runIngest(cmd, nil))
	assert.Contains(t, out.String(), "已写入第 4 行")
	assert.Contains(t, out.String(), "第 3 行已有同日期数据")
}

func TestIngestCmd_Rejects(t *testing.T) {
	setupWorkspace(t)
	cmd, _ := newTestCmd("")
	require.NoError(t, runInit(cmd, nil))

	cmd, _ = newTestCmd("   \n")
	assert.Error(t, runIngest(cmd, nil))

	cmd, out := newTestCmd("没有日期的文本\n水 3")
	assert.ErrorIs(t, runIngest(cmd, nil), errIngestFailed)
	assert.Contains(t, out.String(), "解析失败")

	ingestOnDuplicate = "overwrite"
	cmd, _ = newTestCmd(sampleReport)
	assert.Error(t, runIngest(cmd, nil))
}

func TestIngestCmd_DryRun(t *testing.T) {
	dir := setupWorkspace(t)
	cmd, _ := newTestCmd("")
	require.NoError(t, runInit(cmd, nil))

	ingestDryRun = true
	cmd, out := newTestCmd(sampleReport)
	require.NoError(t, runIngest(cmd, nil))
	assert.Contains(t, out.String(), "预览通过，将写入第 3 行")

	list, err := filepath.Glob(filepath.Join(dir, "ledger_backup_*"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestQueryCmds(t *testing.T) {
	dir := setupWorkspace(t)
	cmd, _ := newTestCmd("")
	require.NoError(t, runInit(cmd, nil))
	cmd, _ = newTestCmd(sampleReport)
	require.NoError(t, runIngest(cmd, nil))

	cmd, out := newTestCmd("")
	require.NoError(t, runFind(cmd, []string{"10-28"}))
	assert.Contains(t, out.String(), "位于第 3 行")

	cmd, out = newTestCmd("")
	require.NoError(t, runFind(cmd, []string{"10-29"}))
	assert.Contains(t, out.String(), "未找到")

	cmd, _ = newTestCmd("")
	assert.Error(t, runFind(cmd, []string{"13-01"}))

	cmd, out = newTestCmd("")
	require.NoError(t, runRows(cmd, nil))
	assert.Contains(t, out.String(), "10-28")

	cmd, out = newTestCmd("")
	require.NoError(t, runBackups(cmd, nil))
	assert.Contains(t, out.String(), filepath.Join(dir, "ledger_backup_"))

	cmd, out = newTestCmd("")
	require.NoError(t, runHistory(cmd, nil))
	assert.Contains(t, out.String(), "success")
}

func TestReadReport(t *testing.T) {
	text, name, err := readReport(strings.NewReader("abc"), nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", text)
	assert.Equal(t, "stdin", name)

	_, _, err = readReport(nil, []string{filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)
}
