package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDate_Ranges(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		month, day int
		ok         bool
	}{
		{10, 28, true},
		{2, 29, true},
		{2, 30, false},
		{4, 31, false},
		{13, 1, false},
		{0, 1, false},
		{12, 32, false},
		{12, 0, false},
	} {
		_, err := NewDate(tc.month, tc.day)
		assert.Equal(t, tc.ok, err == nil, "%d-%d", tc.month, tc.day)
	}
}

func TestDate_CanonicalForm(t *testing.T) {
	t.Parallel()

	d, err := NewDate(3, 7)
	require.NoError(t, err)
	assert.Equal(t, "03-07", d.String())

	parsed, err := ParseDate("03-07")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDate("3-7")
	assert.Error(t, err)
}

func TestAmount_AbsentIsNotZero(t *testing.T) {
	t.Parallel()

	absent := Absent()
	zero := PresentInt(0)

	assert.False(t, absent.IsPresent())
	assert.True(t, zero.IsPresent())
	assert.False(t, absent.Equal(zero))
	assert.Nil(t, absent.CellValue())
	assert.Equal(t, int64(0), zero.CellValue())
}

func TestAmount_CellValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(144), PresentInt(144).CellValue())
	assert.Equal(t, 12.5, Present(decimal.RequireFromString("12.5")).CellValue())
	assert.Equal(t, int64(999999999999999999), Present(decimal.RequireFromString("999999999999999999")).CellValue())
	assert.Equal(t, int64(-9223372036854775808), Present(decimal.RequireFromString("-9223372036854775808")).CellValue())
	assert.IsType(t, float64(0), Present(decimal.RequireFromString("9223372036854775808")).CellValue())
}

func TestAmount_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}{A: PresentInt(90), B: Absent()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":90,"b":null}`, string(data))

	var back struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.A.Equal(PresentInt(90)))
	assert.False(t, back.B.IsPresent())
}

func TestDailyRecord_Immutable(t *testing.T) {
	t.Parallel()

	values := map[Field]Amount{FieldMeituan: PresentInt(144)}
	d, _ := NewDate(10, 28)
	r := NewDailyRecord(d, values)

	values[FieldMeituan] = PresentInt(1)
	assert.True(t, r.Value(FieldMeituan).Equal(PresentInt(144)))

	copied := r.Values()
	copied[FieldMeituan] = PresentInt(2)
	assert.True(t, r.Value(FieldMeituan).Equal(PresentInt(144)))
}

func TestComputeTotals_ExampleReport(t *testing.T) {
	t.Parallel()

	d, _ := NewDate(10, 28)
	r := NewDailyRecord(d, map[Field]Amount{
		FieldMeituan:              PresentInt(144),
		FieldStoredCardRedemption: PresentInt(505),
		FieldCoachingRedemption:   PresentInt(90),
		FieldStoredCardRecharge:   PresentInt(1000),
	})

	totals := ComputeTotals(r)
	assert.True(t, totals[TotalVenue].Equal(decimal.NewFromInt(739)))
	assert.True(t, totals[TotalStore].IsZero())
	assert.True(t, totals[TotalDailySales].Equal(decimal.NewFromInt(739)))
	assert.True(t, totals[TotalGrand].Equal(decimal.NewFromInt(1739)))
}

func TestComposition_CoversEveryFieldInGrandTotal(t *testing.T) {
	t.Parallel()

	seen := map[Field]bool{}
	var walk func(Total)
	walk = func(total Total) {
		for _, term := range total.Composition() {
			if term.IsTotal {
				walk(term.Total)
				continue
			}
			assert.False(t, seen[term.Field], "field %s counted twice", term.Field)
			seen[term.Field] = true
		}
	}
	walk(TotalGrand)
	assert.Len(t, seen, FieldCount)
}
