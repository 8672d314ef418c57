package baseline

import (
	"fmt"
	"strings"
	"time"

	"github.com/markaggar/water-monitor-go/internal/stats"
)

const (
	// Samples kept per bucket, oldest evicted first
	bucketCap = 200

	// Buckets below this count are not usable; callers fall back
	minUsableSamples = 10
)

// Day types for the coarse bucket key
const (
	DayTypeWeekday = "weekday"
	DayTypeWeekend = "weekend"
)

// DayType classifies a timestamp's local day
func DayType(t time.Time) string {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	}
	return DayTypeWeekday
}

// Bucket holds the bounded sample history for one context key
type Bucket struct {
	Durations   []int     `json:"durations"`
	Flows       []float64 `json:"flows"`
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"last_updated"`
}

func (b *Bucket) add(durationS int, avgFlow float64, now time.Time) {
	b.Durations = append(b.Durations, durationS)
	if len(b.Durations) > bucketCap {
		b.Durations = b.Durations[len(b.Durations)-bucketCap:]
	}
	b.Flows = append(b.Flows, avgFlow)
	if len(b.Flows) > bucketCap {
		b.Flows = b.Flows[len(b.Flows)-bucketCap:]
	}
	b.Count = len(b.Durations)
	b.LastUpdated = now
}

// QueryResult carries the duration percentiles for a resolved bucket
type QueryResult struct {
	P50      float64 `json:"p50"`
	P90      float64 `json:"p90"`
	P95      float64 `json:"p95"`
	P99      float64 `json:"p99"`
	Count    int     `json:"count"`
	BucketID string  `json:"bucket_id"`
	Level    string  `json:"level"`
}

// Ready reports whether the resolved bucket has enough history to be
// used as a baseline.
func (r QueryResult) Ready() bool {
	return r.Count >= minUsableSamples
}

// Fallback ladder levels, most to least specific
const (
	LevelFine        = "fine"
	LevelFineAnySize = "fine_any_people"
	LevelCoarse      = "coarse"
	LevelHourAnyDay  = "hour_any_day"
	LevelGlobal      = "global"
)

// Store accumulates per-context session duration/flow histograms.
// Two ladders are maintained: coarse (hour, day type) and fine
// (hour, day type, occupancy class, people bin). Both maps serialize
// directly into the persisted engine document.
type Store struct {
	Hourly  map[string]*Bucket `json:"hourly_stats"`  // coarse: hour|dayType
	Context map[string]*Bucket `json:"context_stats"` // fine: hour|dayType|occ|peopleBin
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Hourly:  make(map[string]*Bucket),
		Context: make(map[string]*Bucket),
	}
}

// Init backfills nil maps after deserialization of a partial document
func (s *Store) Init() {
	if s.Hourly == nil {
		s.Hourly = make(map[string]*Bucket)
	}
	if s.Context == nil {
		s.Context = make(map[string]*Bucket)
	}
}

func coarseKey(hour int, dayType string) string {
	return fmt.Sprintf("%02d|%s", hour, dayType)
}

func fineKey(hour int, dayType, occClass, peopleBin string) string {
	return fmt.Sprintf("%02d|%s|%s|%s", hour, dayType, occClass, peopleBin)
}

// Update appends one completed session to both ladders
func (s *Store) Update(hour int, dayType, occClass, peopleBin string, durationS int, avgFlow float64, now time.Time) {
	if hour < 0 || hour > 23 {
		return
	}

	ck := coarseKey(hour, dayType)
	b := s.Hourly[ck]
	if b == nil {
		b = &Bucket{}
		s.Hourly[ck] = b
	}
	b.add(durationS, avgFlow, now)

	fk := fineKey(hour, dayType, occClass, peopleBin)
	fb := s.Context[fk]
	if fb == nil {
		fb = &Bucket{}
		s.Context[fk] = fb
	}
	fb.add(durationS, avgFlow, now)
}

// Query resolves a usable bucket via the fallback ladder:
//  1. exact fine bucket
//  2. fine bucket across all people bins
//  3. coarse hour|dayType bucket
//  4. coarse hour bucket across day types
//  5. global merge of all coarse buckets
//
// The first level with at least 10 samples wins; if none qualifies the
// deepest (global) merge is returned unready.
func (s *Store) Query(hour int, dayType, occClass, peopleBin string) QueryResult {
	fk := fineKey(hour, dayType, occClass, peopleBin)
	if b := s.Context[fk]; b != nil && b.Count >= minUsableSamples {
		return result(b.Durations, fk, LevelFine)
	}

	prefix := fmt.Sprintf("%02d|%s|%s|", hour, dayType, occClass)
	merged := s.mergeContext(prefix)
	if len(merged) >= minUsableSamples {
		return result(merged, prefix+"*", LevelFineAnySize)
	}

	ck := coarseKey(hour, dayType)
	if b := s.Hourly[ck]; b != nil && b.Count >= minUsableSamples {
		return result(b.Durations, ck, LevelCoarse)
	}

	hourPrefix := fmt.Sprintf("%02d|", hour)
	merged = s.mergeHourly(hourPrefix)
	if len(merged) >= minUsableSamples {
		return result(merged, hourPrefix+"*", LevelHourAnyDay)
	}

	merged = s.mergeHourly("")
	return result(merged, "*", LevelGlobal)
}

func (s *Store) mergeContext(prefix string) []int {
	var merged []int
	for k, b := range s.Context {
		if strings.HasPrefix(k, prefix) {
			merged = append(merged, b.Durations...)
		}
	}
	return merged
}

func (s *Store) mergeHourly(prefix string) []int {
	var merged []int
	for k, b := range s.Hourly {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			merged = append(merged, b.Durations...)
		}
	}
	return merged
}

func result(durations []int, bucketID, level string) QueryResult {
	values := make([]float64, len(durations))
	for i, d := range durations {
		values[i] = float64(d)
	}

	ps := stats.Percentiles(values, []float64{50, 90, 95, 99})
	return QueryResult{
		P50:      ps[0],
		P90:      ps[1],
		P95:      ps[2],
		P99:      ps[3],
		Count:    len(durations),
		BucketID: bucketID,
		Level:    level,
	}
}
