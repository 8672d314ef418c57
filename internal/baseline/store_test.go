package baseline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bs0 = time.Date(2026, 8, 3, 7, 0, 0, 0, time.UTC) // a Monday

func TestDayType(t *testing.T) {
	assert.Equal(t, DayTypeWeekday, DayType(bs0))
	assert.Equal(t, DayTypeWeekend, DayType(bs0.AddDate(0, 0, 5))) // Saturday
}

func TestQueryPercentileInterpolation(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 10; i++ {
		s.Update(7, DayTypeWeekday, "home", "2", i*10, 1.5, bs0)
	}

	r := s.Query(7, DayTypeWeekday, "home", "2")
	require.True(t, r.Ready())
	assert.Equal(t, LevelFine, r.Level)
	assert.InDelta(t, 55.0, r.P50, 1e-9)
	assert.InDelta(t, 91.0, r.P90, 1e-9) // between the 9th and 10th order stats
}

func TestQueryFallbackLadder(t *testing.T) {
	s := NewStore()

	// 12 sessions under a different people bin: exact fine bucket is
	// empty but the people-wildcard merge qualifies
	for i := 0; i < 12; i++ {
		s.Update(7, DayTypeWeekday, "home", "3+", 60+i, 1.0, bs0)
	}
	r := s.Query(7, DayTypeWeekday, "home", "1")
	assert.Equal(t, LevelFineAnySize, r.Level)
	assert.True(t, r.Ready())

	// Different occupancy class: falls through to the coarse bucket
	r = s.Query(7, DayTypeWeekday, "away", "1")
	assert.Equal(t, LevelCoarse, r.Level)
	assert.True(t, r.Ready())

	// Different day type: hour merge across day types
	r = s.Query(7, DayTypeWeekend, "home", "1")
	assert.Equal(t, LevelHourAnyDay, r.Level)
	assert.True(t, r.Ready())

	// Different hour: global merge
	r = s.Query(19, DayTypeWeekend, "home", "1")
	assert.Equal(t, LevelGlobal, r.Level)
	assert.True(t, r.Ready())
}

func TestQueryUnreadyBelowTenSamples(t *testing.T) {
	s := NewStore()
	for i := 0; i < 9; i++ {
		s.Update(7, DayTypeWeekday, "home", "2", 60, 1.0, bs0)
	}

	r := s.Query(7, DayTypeWeekday, "home", "2")
	assert.False(t, r.Ready())
	assert.Equal(t, LevelGlobal, r.Level)
	assert.Equal(t, 9, r.Count)
}

func TestBucketFIFOCap(t *testing.T) {
	s := NewStore()
	for i := 0; i < 250; i++ {
		s.Update(7, DayTypeWeekday, "home", "2", i, 1.0, bs0)
	}

	b := s.Context["07|weekday|home|2"]
	require.NotNil(t, b)
	assert.Equal(t, 200, b.Count)
	assert.Equal(t, 200, len(b.Durations))
	// Oldest 50 evicted
	assert.Equal(t, 50, b.Durations[0])
	assert.Equal(t, 249, b.Durations[199])
}

func TestUpdateIgnoresInvalidHour(t *testing.T) {
	s := NewStore()
	s.Update(24, DayTypeWeekday, "home", "2", 60, 1.0, bs0)
	s.Update(-1, DayTypeWeekday, "home", "2", 60, 1.0, bs0)
	assert.Empty(t, s.Hourly)
}
