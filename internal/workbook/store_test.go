package workbook

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"dailyledger/internal/backup"
	"dailyledger/internal/model"
)

var fixedNow = time.Date(2025, 10, 28, 21, 30, 0, 0, time.Local)

func newLedger(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	if err := Create(path, Options{}); err != nil {
		t.Fatalf("create ledger: %v", err)
	}
	mgr := backup.NewManager(backup.WithClock(func() time.Time { return fixedNow }))
	st, err := New(path, Options{Backup: mgr})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st, path
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// report1028 10-28 日报：只填了部分字段
func report1028(t *testing.T) model.DailyRecord {
	return model.NewDailyRecord(mustDate(t, "10-28"), map[model.Field]model.Amount{
		model.FieldMeituan:              model.PresentInt(144),
		model.FieldStoredCardRedemption: model.PresentInt(505),
		model.FieldCoachingRedemption:   model.PresentInt(90),
		model.FieldStoredCardRecharge:   model.PresentInt(1000),
	})
}

func fullRecord(t *testing.T, date string) model.DailyRecord {
	values := make(map[model.Field]model.Amount)
	for i, f := range model.AllFields() {
		values[f] = model.PresentInt(int64(10 * (i + 1)))
	}
	values[model.FieldWater] = model.Present(decimal.RequireFromString("12.5"))
	return model.NewDailyRecord(mustDate(t, date), values)
}

func readBytes(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestAppend_WritesLiteralsAndFormulas(t *testing.T) {
	st, path := newLedger(t)

	res, err := st.Append(report1028(t), DuplicateAbort)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if res.Row != 3 {
		t.Fatalf("row = %d, want 3", res.Row)
	}
	if res.Backup.Path != filepath.Join(filepath.Dir(path), "ledger_backup_20251028_213000.xlsx") {
		t.Fatalf("backup path = %s", res.Backup.Path)
	}

	row, err := st.ReadRow(3)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if row.Date != "10-28" {
		t.Fatalf("date = %q", row.Date)
	}

	want := map[model.Field]int64{
		model.FieldMeituan:              144,
		model.FieldStoredCardRedemption: 505,
		model.FieldCoachingRedemption:   90,
		model.FieldStoredCardRecharge:   1000,
	}
	for _, f := range model.AllFields() {
		got, present := row.Values[f]
		w, ok := want[f]
		if !ok {
			if present {
				t.Fatalf("%s should be empty, got %s", f.Label(), got)
			}
			continue
		}
		if !got.Equal(model.PresentInt(w)) {
			t.Fatalf("%s = %s, want %d", f.Label(), got, w)
		}
	}

	formulas := map[model.Total]string{
		model.TotalVenue:      "C3+D3+E3+F3+G3+H3",
		model.TotalStore:      "J3+K3+L3",
		model.TotalDailySales: "B3+I3+P3",
		model.TotalGrand:      "B3+I3+M3+N3+O3+P3",
	}
	for total, w := range formulas {
		if got := row.Formulas[total]; got != w {
			t.Fatalf("%s formula = %q, want %q", total.Label(), got, w)
		}
	}
}

func TestAppend_RoundTripRecord(t *testing.T) {
	st, _ := newLedger(t)
	rec := fullRecord(t, "10-01")

	res, err := st.Append(rec, DuplicateAbort)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	row, err := st.ReadRow(res.Row)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	got, err := row.Record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got.Date() != rec.Date() {
		t.Fatalf("date = %s, want %s", got.Date(), rec.Date())
	}
	for _, f := range model.AllFields() {
		if !got.Value(f).Equal(rec.Value(f)) {
			t.Fatalf("%s = %s, want %s", f.Label(), got.Value(f), rec.Value(f))
		}
	}
}

func TestAppend_ValueViewEvaluatesTotals(t *testing.T) {
	st, _ := newLedger(t)
	rec := fullRecord(t, "10-02")
	if _, err := st.Append(rec, DuplicateAbort); err != nil {
		t.Fatalf("append: %v", err)
	}

	view, err := st.OpenValueView()
	if err != nil {
		t.Fatalf("open value view: %v", err)
	}
	defer view.Close()

	rows, err := view.Rows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	for _, total := range model.AllTotals() {
		want := model.ComputeTotal(rec, total)
		if got := rows[0].Totals[total]; !got.Equal(want) {
			t.Fatalf("%s = %s, want %s", total.Label(), got, want)
		}
	}
}

func TestAppend_DuplicateAbortLeavesFileUntouched(t *testing.T) {
	st, path := newLedger(t)
	if _, err := st.Append(report1028(t), DuplicateAbort); err != nil {
		t.Fatalf("first append: %v", err)
	}
	before := readBytes(t, path)
	entriesBefore := dirEntries(t, filepath.Dir(path))

	_, err := st.Append(report1028(t), DuplicateAbort)
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("err = %v, want duplicate date", err)
	}
	var se *StoreError
	if !errors.As(err, &se) || se.Row != 3 {
		t.Fatalf("duplicate should reference row 3, got %#v", err)
	}
	if !bytes.Equal(before, readBytes(t, path)) {
		t.Fatalf("workbook changed after rejected duplicate")
	}
	if got := dirEntries(t, filepath.Dir(path)); len(got) != len(entriesBefore) {
		t.Fatalf("unexpected files after duplicate: %v", got)
	}
}

func TestAppend_ForceAppendKeepsExistingRow(t *testing.T) {
	st, _ := newLedger(t)
	if _, err := st.Append(report1028(t), DuplicateAbort); err != nil {
		t.Fatalf("first append: %v", err)
	}

	second := model.NewDailyRecord(mustDate(t, "10-28"), map[model.Field]model.Amount{
		model.FieldWechat: model.PresentInt(66),
	})
	res, err := st.Append(second, DuplicateForceAppendAsNewRow)
	if err != nil {
		t.Fatalf("force append: %v", err)
	}
	if res.Row != 4 || res.Duplicate != 3 {
		t.Fatalf("result = %+v, want row 4 duplicate of 3", res)
	}

	rows, err := st.Rows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].Values[model.FieldMeituan].Equal(model.PresentInt(144)) {
		t.Fatalf("first row overwritten: %+v", rows[0].Values)
	}
	if rows[1].Formulas[model.TotalVenue] != "C4+D4+E4+F4+G4+H4" {
		t.Fatalf("second row formula = %q", rows[1].Formulas[model.TotalVenue])
	}

	row, found, err := st.FindByDate(mustDate(t, "10-28"))
	if err != nil || !found || row != 3 {
		t.Fatalf("find = %d %v %v, want first occurrence 3", row, found, err)
	}
}

func TestAppend_RequiresPolicy(t *testing.T) {
	st, path := newLedger(t)
	before := readBytes(t, path)

	if _, err := st.Append(report1028(t), 0); !errors.Is(err, ErrDuplicatePolicyRequired) {
		t.Fatalf("err = %v", err)
	}
	if !bytes.Equal(before, readBytes(t, path)) {
		t.Fatalf("workbook changed")
	}
}

func TestAppend_MissingFile(t *testing.T) {
	mgr := backup.NewManager()
	st, err := New(filepath.Join(t.TempDir(), "missing.xlsx"), Options{Backup: mgr})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := st.Append(report1028(t), DuplicateAbort); !errors.Is(err, ErrFileMissing) {
		t.Fatalf("err = %v, want file missing", err)
	}
}

func TestAppend_LockedFileAbortsBeforeBackup(t *testing.T) {
	st, path := newLedger(t)
	dir := filepath.Dir(path)
	if err := os.WriteFile(filepath.Join(dir, "~$ledger.xlsx"), []byte("owner"), 0644); err != nil {
		t.Fatalf("write lock marker: %v", err)
	}
	before := readBytes(t, path)

	_, err := st.Append(report1028(t), DuplicateAbort)
	if !errors.Is(err, ErrFileLocked) {
		t.Fatalf("err = %v, want file locked", err)
	}
	if !bytes.Equal(before, readBytes(t, path)) {
		t.Fatalf("workbook changed")
	}
	for _, name := range dirEntries(t, dir) {
		if filepath.Ext(name) == ".xlsx" && name != "ledger.xlsx" && name != "~$ledger.xlsx" {
			t.Fatalf("unexpected file %s", name)
		}
	}
}

type failingSnapshotter struct{}

func (failingSnapshotter) Snapshot(string) (backup.Handle, error) {
	return backup.Handle{}, errors.New("disk full")
}

func TestAppend_BackupFailureAbortsWrite(t *testing.T) {
	_, path := newLedger(t)
	st, err := New(path, Options{Backup: failingSnapshotter{}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	before := readBytes(t, path)

	if _, err := st.Append(report1028(t), DuplicateAbort); !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("err = %v, want backup failed", err)
	}
	if !bytes.Equal(before, readBytes(t, path)) {
		t.Fatalf("workbook changed")
	}
}

func TestAppend_SaveFailureKeepsOriginal(t *testing.T) {
	st, path := newLedger(t)
	before := readBytes(t, path)

	renameFile = func(string, string) error { return errors.New("rename refused") }
	t.Cleanup(func() { renameFile = os.Rename })

	_, err := st.Append(report1028(t), DuplicateAbort)
	if !errors.Is(err, ErrSaveFailed) {
		t.Fatalf("err = %v, want save failed", err)
	}
	var serr *StoreError
	if !errors.As(err, &serr) || serr.Backup == nil {
		t.Fatalf("save failure should report the backup taken before it: %v", err)
	}
	if _, err := os.Stat(serr.Backup.Path); err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if !bytes.Equal(before, readBytes(t, path)) {
		t.Fatalf("workbook changed")
	}
	for _, name := range dirEntries(t, filepath.Dir(path)) {
		if filepath.Ext(name) == ".tmp" {
			t.Fatalf("temp file left behind: %s", name)
		}
	}
}

func TestAppend_GapInDataRegionIsCorrupt(t *testing.T) {
	st, path := newLedger(t)

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = f.SetCellStr(DefaultSheet, "A3", "10-01")
	_ = f.SetCellStr(DefaultSheet, "A5", "10-03")
	if err := f.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	if _, err := st.Append(report1028(t), DuplicateAbort); !errors.Is(err, ErrCorruptWorkbook) {
		t.Fatalf("err = %v, want corrupt workbook", err)
	}
}

func TestAppend_MissingSheetIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.xlsx")
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	st, err := New(path, Options{Backup: backup.NewManager()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := st.Append(report1028(t), DuplicateAbort); !errors.Is(err, ErrCorruptWorkbook) {
		t.Fatalf("err = %v, want corrupt workbook", err)
	}
}

func TestAppend_StylesFollowColumnGroups(t *testing.T) {
	st, path := newLedger(t)
	if _, err := st.Append(report1028(t), DuplicateAbort); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	styleOf := func(cell string) int {
		id, err := f.GetCellStyle(DefaultSheet, cell)
		if err != nil {
			t.Fatalf("style %s: %v", cell, err)
		}
		return id
	}
	for _, pair := range [][2]string{{"B3", "M3"}, {"B3", "I3"}, {"Q3", "R3"}, {"C3", "H3"}, {"J3", "L3"}} {
		if styleOf(pair[0]) != styleOf(pair[1]) {
			t.Fatalf("%s and %s should share a style", pair[0], pair[1])
		}
	}

	style, err := f.GetStyle(styleOf("A3"))
	if err != nil {
		t.Fatalf("get style: %v", err)
	}
	if len(style.Fill.Color) == 0 || normalizeColor(style.Fill.Color[0]) != "#B4A7D6" {
		t.Fatalf("date fill = %v", style.Fill.Color)
	}
}

func TestNew_SeedsStylesFromReferenceRow(t *testing.T) {
	_, path := newLedger(t)

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	custom, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#00FF00"}, Pattern: 1},
		Font: &excelize.Font{Family: "Arial", Size: 12, Color: "#111111"},
	})
	if err != nil {
		t.Fatalf("new style: %v", err)
	}
	if err := f.SetCellStyle(DefaultSheet, "Q3", "Q3", custom); err != nil {
		t.Fatalf("set style: %v", err)
	}
	if err := f.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	st, err := New(path, Options{Backup: backup.NewManager(), StyleReferenceRow: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	totals := st.Styles().Profile(GroupTotals)
	if totals.FillColor != "#00FF00" || totals.FontFamily != "Arial" {
		t.Fatalf("seeded totals = %+v", totals)
	}
	if st.Styles().Profile(GroupDate) != DefaultStyleSheet().Profile(GroupDate) {
		t.Fatalf("unstyled reference cell should keep the default profile")
	}
}

func TestNextRow(t *testing.T) {
	st, _ := newLedger(t)
	row, err := st.NextRow()
	if err != nil || row != DefaultFirstDataRow {
		t.Fatalf("next row = %d %v", row, err)
	}
	if _, err := st.Append(report1028(t), DuplicateAbort); err != nil {
		t.Fatalf("append: %v", err)
	}
	if row, _ := st.NextRow(); row != 4 {
		t.Fatalf("next row = %d, want 4", row)
	}
}

func TestCreate_ConfiguredSheetAcceptsAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	opts := Options{Sheet: "Daily", FirstDataRow: 5, Backup: backup.NewManager()}
	if err := Create(path, opts); err != nil {
		t.Fatalf("create: %v", err)
	}
	st, err := New(path, opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := st.Append(report1028(t), DuplicateAbort)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if res.Row != 5 {
		t.Fatalf("row = %d, want 5", res.Row)
	}

	row, err := st.ReadRow(5)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if row.Date != "10-28" || row.Formulas[model.TotalVenue] != "C5+D5+E5+F5+G5+H5" {
		t.Fatalf("row = %+v", row)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	formula, err := f.GetCellFormula(DefaultSummarySheet, "B11")
	if err != nil {
		t.Fatalf("summary formula: %v", err)
	}
	if formula != `SUMIFS('Daily'!B:B,'Daily'!$A:$A,"10-*")` {
		t.Fatalf("summary formula = %s", formula)
	}
}

func TestCreate_RejectsDataRowInsideHeader(t *testing.T) {
	dir := t.TempDir()
	for _, opts := range []Options{{FirstDataRow: 2}, {Sheet: DefaultSummarySheet}} {
		path := filepath.Join(dir, "ledger.xlsx")
		if err := Create(path, opts); err == nil {
			t.Fatalf("create with %+v should fail", opts)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("no workbook should be written for %+v", opts)
		}
	}
}

func TestAppend_LargeIntegerRoundTrip(t *testing.T) {
	st, _ := newLedger(t)
	big := model.Present(decimal.RequireFromString("999999999999999999"))
	rec := model.NewDailyRecord(mustDate(t, "10-28"), map[model.Field]model.Amount{model.FieldMeituan: big})
	if _, err := st.Append(rec, DuplicateAbort); err != nil {
		t.Fatalf("append: %v", err)
	}
	row, err := st.ReadRow(3)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if got := row.Values[model.FieldMeituan]; !got.Equal(big) {
		t.Fatalf("meituan = %s, want %s", got, big)
	}
}
