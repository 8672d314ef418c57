package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaggar/water-monitor-go/internal/models"
)

// seedDaily installs precomputed summaries for the 7 days before the
// day being evaluated (2..8 days back from now)
func seedDaily(e *Engine, now time.Time, volumes []float64) {
	for i, v := range volumes {
		day := now.AddDate(0, 0, -(2 + i))
		key := day.Format("2006-01-02")
		e.daily[key] = &models.DailySummary{Date: key, TotalVolume: v}
	}
}

// seedSessions adds n session records ending on the given day
func seedSessions(e *Engine, day time.Time, volumes []float64) {
	for i, v := range volumes {
		e.sessions = append(e.sessions, models.SessionRecord{
			EndedAt:   day.Add(time.Duration(i) * time.Hour),
			Volume:    v,
			DurationS: 120,
			HotPct:    40,
		})
	}
}

func TestDailyAnomalyDetected(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2026, 8, 20, 3, 10, 0, 0, time.UTC)

	// Noisy but stable week around 50, then a 500-volume day
	seedDaily(e, now, []float64{49, 51, 50, 48, 52, 50, 50})
	seedSessions(e, now.AddDate(0, 0, -1).Truncate(24*time.Hour).Add(8*time.Hour), []float64{200, 300})

	summary, events := e.RunDailyAnalysis(now)

	require.NotNil(t, summary.Threshold3Sigma)
	assert.True(t, summary.Anomaly)
	assert.InDelta(t, 500, summary.TotalVolume, 1e-9)
	assert.Equal(t, 2, summary.Sessions)
	assert.InDelta(t, 50, summary.BaselineMean, 1e-6)

	require.Len(t, events, 1)
	assert.Equal(t, models.EventDaily, events[0].Type)
	assert.Same(t, summary, events[0].Summary)
}

func TestDailyZeroStdMeansNoThreshold(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2026, 8, 20, 3, 10, 0, 0, time.UTC)

	// Identical volumes every day: std is 0, so no threshold exists
	seedDaily(e, now, []float64{50, 50, 50, 50, 50, 50, 50})
	seedSessions(e, now.AddDate(0, 0, -1).Truncate(24*time.Hour).Add(8*time.Hour), []float64{50})

	summary, _ := e.RunDailyAnalysis(now)

	assert.Nil(t, summary.Threshold3Sigma)
	assert.False(t, summary.Anomaly)
}

func TestDailyEmptyDay(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2026, 8, 20, 3, 10, 0, 0, time.UTC)

	summary, _ := e.RunDailyAnalysis(now)

	assert.Equal(t, 0.0, summary.TotalVolume)
	assert.Equal(t, 0, summary.Sessions)
	assert.Equal(t, 0.0, summary.AvgDuration)
	assert.False(t, summary.Anomaly)
}

func TestDailySkipsOtherDays(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2026, 8, 20, 3, 10, 0, 0, time.UTC)

	yesterday := now.AddDate(0, 0, -1).Truncate(24 * time.Hour)
	seedSessions(e, yesterday.Add(9*time.Hour), []float64{10})
	// Sessions from two days ago and today are out of scope
	seedSessions(e, yesterday.AddDate(0, 0, -1).Add(9*time.Hour), []float64{99})
	seedSessions(e, now.Add(time.Hour), []float64{77})

	summary, _ := e.RunDailyAnalysis(now)
	assert.InDelta(t, 10, summary.TotalVolume, 1e-9)
	assert.Equal(t, 1, summary.Sessions)
}

func TestDailyPruneKeepsRecentEntries(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2026, 8, 20, 3, 10, 0, 0, time.UTC)

	// Backfill well past the retention cap
	for i := 0; i < maxDailyEntries+30; i++ {
		day := now.AddDate(0, 0, -(2 + i))
		key := day.Format("2006-01-02")
		e.daily[key] = &models.DailySummary{Date: key, TotalVolume: 50}
	}

	e.RunDailyAnalysis(now)

	assert.LessOrEqual(t, len(e.daily), maxDailyEntries)
	// The newest summary survives pruning
	yKey := now.AddDate(0, 0, -1).Format("2006-01-02")
	_, ok := e.daily[yKey]
	assert.True(t, ok)
}

func TestDailySummaryFeedsNextBaseline(t *testing.T) {
	e := newTestEngine()
	start := time.Date(2026, 8, 10, 3, 10, 0, 0, time.UTC)

	// Run eight consecutive daily analyses over seeded sessions; the
	// eighth day's baseline comes entirely from computed summaries
	for d := 0; d < 9; d++ {
		day := start.AddDate(0, 0, d-1).Truncate(24 * time.Hour)
		vol := 50.0 + float64(d%3) // 50, 51, 52, ...
		seedSessions(e, day.Add(10*time.Hour), []float64{vol})
	}
	var last *models.DailySummary
	for d := 0; d < 9; d++ {
		last, _ = e.RunDailyAnalysis(start.AddDate(0, 0, d))
	}

	require.NotNil(t, last)
	assert.Equal(t, "2026-08-17", last.Date)
	assert.True(t, last.BaselineMean > 0)
}
