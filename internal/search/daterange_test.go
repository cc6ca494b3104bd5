package search_test

import (
	"testing"
	"time"

	"pulsegrid-client/internal/search"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func TestCommit_SwapsInvertedRange(t *testing.T) {
	r := search.NewDateRangeAt(fixedNow)
	require.NoError(t, r.SetStart("2024-03-10"))
	require.NoError(t, r.SetEnd("2024-03-01"))

	start, end := r.Commit()
	require.Equal(t, "2024-03-01", start)
	require.Equal(t, "2024-03-10", end)
}

func TestSetStart_RejectsInvalidInput(t *testing.T) {
	r := search.NewDateRangeAt(fixedNow)
	require.Error(t, r.SetStart("03/10/2024"))
	require.Error(t, r.SetStart(""))
	require.Error(t, r.SetEnd("2024-13-45"))

	// 非法输入不进入暂存值
	start, end := r.Commit()
	require.Equal(t, "2024-03-15", start)
	require.Equal(t, "2024-03-15", end)
}

func TestStagedEditsDoNotApplyUntilCommit(t *testing.T) {
	r := search.NewDateRangeAt(fixedNow)
	require.NoError(t, r.SetStart("2024-01-01"))
	require.NoError(t, r.SetEnd("2024-02-01"))

	start, end := r.Committed()
	require.Equal(t, "2024-03-15", start, "未提交前查询范围不变")
	require.Equal(t, "2024-03-15", end)

	r.Commit()
	start, end = r.Committed()
	require.Equal(t, "2024-01-01", start)
	require.Equal(t, "2024-02-01", end)
}

func TestQuickSelect_Presets(t *testing.T) {
	cases := []struct {
		preset    search.Preset
		wantStart string
	}{
		{search.PresetToday, "2024-03-15"},
		{search.PresetLast7Days, "2024-03-08"},
		{search.PresetLast30Days, "2024-02-14"},
		{search.PresetLast90Days, "2023-12-16"},
	}

	for _, tc := range cases {
		r := search.NewDateRangeAt(fixedNow)
		require.NoError(t, r.QuickSelect(tc.preset))

		start, end := r.Commit()
		require.Equal(t, tc.wantStart, start, "preset %s", tc.preset)
		require.Equal(t, "2024-03-15", end)
	}
}

func TestQuickSelect_UnknownPreset(t *testing.T) {
	r := search.NewDateRangeAt(fixedNow)
	require.Error(t, r.QuickSelect("lastyear"))
}
