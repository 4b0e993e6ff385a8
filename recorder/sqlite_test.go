package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_Observations(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordObservation(ObservationRow{
		Symbol: "TCS", Ts: time.Now(), Price: 3500.5, PrevClose: 3480.0, Crash: false,
	}))
	require.NoError(t, r.RecordObservation(ObservationRow{
		Symbol: "TCS", Ts: time.Now(), Price: 3390.0, PrevClose: 3480.0, Crash: true,
	}))

	var count, crashes int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*), SUM(crash) FROM observations WHERE symbol = 'TCS'`).Scan(&count, &crashes))
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, crashes)
}

func TestSQLiteRecorder_Reports(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordWeekly([]WeeklyRow{
		{Symbol: "INFY", WeekLow: 1400, WeekHigh: 1460, RangePct: 4.28, Suggestion: "BUY"},
		{Symbol: "SBIN", WeekLow: 800, WeekHigh: 805, RangePct: 0.62, Suggestion: "WATCH"},
	}))
	require.NoError(t, r.RecordDaily([]DailyRow{
		{Symbol: "INFY", Open: 1410, Last: 1425, Net: 15},
	}))

	var weekly, daily int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM weekly_rankings`).Scan(&weekly))
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM daily_performance`).Scan(&daily))
	assert.Equal(t, 2, weekly)
	assert.Equal(t, 1, daily)

	var suggestion string
	require.NoError(t, r.db.QueryRow(`SELECT suggestion FROM weekly_rankings WHERE symbol = 'INFY'`).Scan(&suggestion))
	assert.Equal(t, "BUY", suggestion)
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.RecordObservation(ObservationRow{Symbol: "LT", Ts: time.Now(), Price: 3600}))
	require.NoError(t, r.Close())

	// Re-running migrations against an existing database is a no-op.
	r2, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r2.Close()

	var count int
	require.NoError(t, r2.db.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&count))
	assert.Equal(t, 1, count)
}
