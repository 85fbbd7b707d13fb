package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dailyledger/internal/model"
)

func TestColumns_Layout(t *testing.T) {
	cols := Columns()
	require.Len(t, cols, 18)
	assert.Equal(t, "A", DateColumn())
	assert.Equal(t, "C", FieldColumn(model.FieldMeituan))
	assert.Equal(t, "P", FieldColumn(model.FieldMonthlyCard))
	assert.Equal(t, "B", TotalColumn(model.TotalVenue))
	assert.Equal(t, "R", TotalColumn(model.TotalGrand))

	seen := map[model.Field]bool{}
	for _, c := range cols {
		if c.Kind == KindLiteral {
			assert.False(t, seen[c.Field], "field %s mapped twice", c.Field)
			seen[c.Field] = true
		}
	}
	assert.Len(t, seen, model.FieldCount)
}

func TestFormula_ReferencesOwnRow(t *testing.T) {
	assert.Equal(t, "C17+D17+E17+F17+G17+H17", Formula(model.TotalVenue, 17))
	assert.Equal(t, "J5+K5+L5", Formula(model.TotalStore, 5))
	assert.Equal(t, "B9+I9+P9", Formula(model.TotalDailySales, 9))
	assert.Equal(t, "B3+I3+M3+N3+O3+P3", Formula(model.TotalGrand, 3))
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("abort")
	require.NoError(t, err)
	assert.Equal(t, DuplicateAbort, p)

	p, err = ParseDuplicatePolicy(" Append ")
	require.NoError(t, err)
	assert.Equal(t, DuplicateForceAppendAsNewRow, p)

	_, err = ParseDuplicatePolicy("")
	assert.Error(t, err)
	assert.False(t, DuplicatePolicy(0).Valid())
}

func TestNewStyleSheet_RequiresAllGroups(t *testing.T) {
	_, err := NewStyleSheet(map[StyleGroup]StyleProfile{GroupDate: {FillColor: "FFB4A7D6"}})
	assert.Error(t, err)

	profiles := map[StyleGroup]StyleProfile{}
	for g := 0; g < StyleGroupCount; g++ {
		profiles[StyleGroup(g)] = DefaultStyleSheet().Profile(StyleGroup(g))
	}
	profiles[GroupDate] = StyleProfile{FillColor: "ffb4a7d6", FontColor: "#fff000"}
	s, err := NewStyleSheet(profiles)
	require.NoError(t, err)
	assert.Equal(t, "#B4A7D6", s.Profile(GroupDate).FillColor)
	assert.Equal(t, "#FFF000", s.Profile(GroupDate).FontColor)
}

func TestCreate_HeaderAndSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, Create(path, Options{}))
	assert.Error(t, Create(path, Options{}), "existing workbook must not be replaced")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet, DefaultSummarySheet}, f.GetSheetList())

	v, err := f.GetCellValue(DefaultSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "大众美团", v)

	formula, err := f.GetCellFormula(DefaultSummarySheet, "B11")
	require.NoError(t, err)
	assert.Equal(t, `SUMIFS('每日数据'!B:B,'每日数据'!$A:$A,"10-*")`, formula)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestHeaderLabels(t *testing.T) {
	labels := HeaderLabels()
	require.Len(t, labels, 18)
	assert.Equal(t, "日期", labels[0])
	assert.Equal(t, "当日总计", labels[17])
}
