package growth

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-15":           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		"2025-03":              time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		"2025-03-01T10:30:00Z": time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		" 2025-03-01 ":         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got, err := ParsePeriod(input)
		require.NoError(t, err, "input %q", input)
		require.True(t, got.Equal(want), "input %q: got %s", input, got)
	}

	for _, bad := range []string{"", "march 2025", "2025-13-01", "not-a-date"} {
		_, err := ParsePeriod(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestNormalizeFactsLenient(t *testing.T) {
	records := []Record{
		{AccountID: "a1", Period: "2025-01-01", Amount: "100"},
		{AccountID: "a1", Period: "garbage", Amount: "200"},
		{AccountID: "", Period: "2025-02-01", Amount: "300"},
		{AccountID: "a2", Period: "2025-02", Amount: "not-a-number"},
		{AccountID: "a2", Period: "2025-02", Amount: "400.25"},
	}

	facts, rowErrs, err := NormalizeFacts(records, false)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	require.Len(t, rowErrs, 3)
	require.Equal(t, 1, rowErrs[0].Index)
	require.Equal(t, 2, rowErrs[1].Index)
	require.Equal(t, 3, rowErrs[2].Index)
	require.True(t, facts[1].Amount.Equal(decimal.RequireFromString("400.25")))
}

func TestNormalizeFactsStrict(t *testing.T) {
	records := []Record{
		{AccountID: "a1", Period: "2025-01-01", Amount: "100"},
		{AccountID: "a1", Period: "garbage", Amount: "200"},
	}

	facts, rowErrs, err := NormalizeFacts(records, true)
	require.ErrorIs(t, err, ErrStrictRejected)
	require.Nil(t, facts)
	require.Len(t, rowErrs, 1)
}
