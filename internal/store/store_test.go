package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestIngestion_CreateAndComplete(t *testing.T) {
	st := newTestStore(t)

	id, err := st.CreateIngestion("cli", "report.txt", "abc123", "abort")
	require.NoError(t, err)
	require.Len(t, id, 36)

	it, err := st.GetIngestion(id)
	require.NoError(t, err)
	assert.Equal(t, "received", it.State)
	assert.Equal(t, "pending", it.Outcome)
	assert.Nil(t, it.CompletedAt)
	assert.Empty(t, it.Warnings)

	require.NoError(t, st.CompleteIngestion(id, IngestionResult{
		RecordDate: "10-28",
		State:      "inserted",
		Outcome:    "success",
		Row:        3,
		BackupPath: "/data/ledger_backup_20251028_213000.xlsx",
		Warnings:   []string{"当日总计 与计算值不一致"},
	}))

	it, err = st.GetIngestion(id)
	require.NoError(t, err)
	assert.Equal(t, "success", it.Outcome)
	assert.Equal(t, 3, it.Row)
	assert.Equal(t, "10-28", it.RecordDate)
	assert.Equal(t, []string{"当日总计 与计算值不一致"}, it.Warnings)
	assert.NotNil(t, it.CompletedAt)
}

func TestIngestion_UnknownID(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetIngestion("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.CompleteIngestion("missing", IngestionResult{State: "failed", Outcome: "parse_failure"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListIngestions_NewestFirst(t *testing.T) {
	st := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := st.CreateIngestion("http", "", "h", "abort")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := st.ListIngestions(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
}

func TestLastSuccess(t *testing.T) {
	st := newTestStore(t)

	_, _, ok, err := st.LastSuccess()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.RecordLastSuccess("10-28", 3))
	require.NoError(t, st.RecordLastSuccess("10-29", 4))

	date, row, ok, err := st.LastSuccess()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10-29", date)
	assert.Equal(t, 4, row)
}

func TestListMonthStats(t *testing.T) {
	st := newTestStore(t)

	complete := func(date, outcome string) {
		id, err := st.CreateIngestion("cli", "", "h", "abort")
		require.NoError(t, err)
		require.NoError(t, st.CompleteIngestion(id, IngestionResult{RecordDate: date, State: "done", Outcome: outcome}))
	}
	complete("10-28", "success")
	complete("10-28", "duplicate")
	complete("09-30", "success")
	complete("", "parse_failure")

	stats, err := st.ListMonthStats()
	require.NoError(t, err)
	assert.Equal(t, []MonthStat{
		{Month: "10", Succeeded: 1, Failed: 1},
		{Month: "09", Succeeded: 1, Failed: 0},
	}, stats)
}
