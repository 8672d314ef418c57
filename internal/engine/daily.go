package engine

import (
	"log"
	"sort"
	"time"

	"github.com/markaggar/water-monitor-go/internal/models"
	"github.com/markaggar/water-monitor-go/internal/stats"
)

// Daily summaries retained; oldest day keys pruned first
const maxDailyEntries = 370

// Trailing baseline window: the 7 already-computed days before the day
// being evaluated (2 to 8 days back from "now")
const (
	baselineFirstDayBack = 2
	baselineLastDayBack  = 8
)

func (e *Engine) dayKey(t time.Time) string {
	return t.In(e.loc).Format("2006-01-02")
}

// RunDailyAnalysis computes the previous local day's summary, evaluates
// it against the trailing 7-day baseline, stores it, and returns the
// resulting daily event. Intended to be driven by a host-side daily
// tick shortly after local midnight.
func (e *Engine) RunDailyAnalysis(now time.Time) (*models.DailySummary, []models.Event) {
	yesterday := now.In(e.loc).AddDate(0, 0, -1)
	yKey := e.dayKey(yesterday)

	var dayVolumes, dayDurations, dayHotPcts []float64
	count := 0
	for _, rec := range e.sessions {
		if e.dayKey(rec.EndedAt) != yKey {
			continue
		}
		count++
		dayVolumes = append(dayVolumes, rec.Volume)
		dayDurations = append(dayDurations, float64(rec.DurationS))
		dayHotPcts = append(dayHotPcts, rec.HotPct)
	}

	totalVolume := 0.0
	for _, v := range dayVolumes {
		totalVolume += v
	}

	// Baseline from the 7 preceding computed summaries, skipping the
	// day under evaluation
	var last7 []float64
	for d := baselineFirstDayBack; d <= baselineLastDayBack; d++ {
		dk := e.dayKey(now.In(e.loc).AddDate(0, 0, -d))
		if prev, ok := e.daily[dk]; ok {
			last7 = append(last7, prev.TotalVolume)
		}
	}

	baselineMean := stats.Mean(last7)
	baselineStd := 0.0
	if len(last7) >= 2 {
		baselineStd = stats.PopulationStdDev(last7)
	}

	var threshold *float64
	anomaly := false
	if baselineStd > 0 {
		t := models.Round3(baselineMean + 3*baselineStd)
		threshold = &t
		anomaly = totalVolume > *threshold
	}

	summary := &models.DailySummary{
		Date:            yKey,
		TotalVolume:     models.Round3(totalVolume),
		Sessions:        count,
		AvgDuration:     models.Round1(stats.Mean(dayDurations)),
		AvgHotPct:       models.Round1(stats.Mean(dayHotPcts)),
		BaselineMean:    models.Round3(baselineMean),
		BaselineStd:     models.Round3(baselineStd),
		Threshold3Sigma: threshold,
		Anomaly:         anomaly,
	}

	e.daily[yKey] = summary
	e.pruneDaily()
	e.dirty = true

	log.Printf("[Engine] Daily summary %s: volume=%.3f sessions=%d anomaly=%v", yKey, summary.TotalVolume, count, anomaly)

	events := []models.Event{{Type: models.EventDaily, Summary: summary}}
	return summary, events
}

// pruneDaily drops the oldest day keys past the retention cap
func (e *Engine) pruneDaily() {
	if len(e.daily) <= maxDailyEntries {
		return
	}

	keys := make([]string, 0, len(e.daily))
	for k := range e.daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys[:len(keys)-maxDailyEntries] {
		delete(e.daily, k)
	}
}
