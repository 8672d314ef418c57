package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/markaggar/water-monitor-go/internal/baseline"
	"github.com/markaggar/water-monitor-go/internal/config"
	"github.com/markaggar/water-monitor-go/internal/detect"
	"github.com/markaggar/water-monitor-go/internal/models"
	"github.com/markaggar/water-monitor-go/internal/occupancy"
	"github.com/markaggar/water-monitor-go/internal/tracker"
)

// Session history bound; oldest records are dropped first
const maxSessionHistory = 5000

// State is the single persisted document. A missing or partial document
// loads as empty state, never as an error.
type State struct {
	Sessions []models.SessionRecord          `json:"sessions"`
	Daily    map[string]*models.DailySummary `json:"daily"`
	Hourly   map[string]*baseline.Bucket     `json:"hourly_stats"`
	Context  map[string]*baseline.Bucket     `json:"context_stats"`
}

// Engine coordinates the tracker and detectors over one monitored
// source. It is single-threaded by contract: the host serializes calls,
// and every timer here is pure data advanced by injected timestamps.
//
// Events are returned from calls instead of published on a bus; the
// host fans them out.
type Engine struct {
	cfg        config.MonitorConfig
	loc        *time.Location
	classifier *occupancy.Classifier

	tracker    *tracker.SessionTracker
	lowFlow    *detect.LowFlowDetector
	tankRefill *detect.TankRefillDetector
	stats      *baseline.Store

	sessions []models.SessionRecord
	daily    map[string]*models.DailySummary

	// Dedup signature of the last recorded session
	lastSessionSig *sessionSig

	// Last raw sample, replayed on time-only ticks
	lastSample *models.Sample
	lastOcc    models.OccupancyInput

	// Drip tracking for the risk estimator
	lowFlowSince *time.Time

	lastSnapshot models.Snapshot
	dirty        bool
}

type sessionSig struct {
	volume    float64
	durationS int
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// NewEngine builds an engine with normalized configuration. loc selects
// the local timezone for daily bucketing; nil means time.Local.
func NewEngine(cfg config.MonitorConfig, loc *time.Location) *Engine {
	cfg.Normalize()
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		cfg: cfg,
		loc: loc,
		classifier: occupancy.NewClassifier(
			cfg.Intelligent.AwayStates,
			cfg.Intelligent.VacationStates,
		),
		tracker:    tracker.NewSessionTracker(cfg.Tracker),
		lowFlow:    detect.NewLowFlowDetector(cfg.LowFlow),
		tankRefill: detect.NewTankRefillDetector(cfg.TankRefill),
		stats:      baseline.NewStore(),
		daily:      make(map[string]*models.DailySummary),
	}
}

// Ingest advances every component with a new sample and returns the
// events produced. The tracker always runs first so downstream
// consumers see a causally-ordered stream of completed sessions.
func (e *Engine) Ingest(sample models.Sample, occ models.OccupancyInput) ([]models.Event, models.Snapshot) {
	snap := e.tracker.Update(sample.FlowRate, sample.CumulativeVolume, sample.HotWaterActive, sample.Timestamp)

	if e.cfg.LowFlow.Enabled {
		e.lowFlow.Update(sample.FlowRate, sample.Timestamp)
	}
	e.trackLowFlow(sample.FlowRate, sample.Timestamp)

	var events []models.Event
	if rec := e.recordCompletedSession(snap, occ, sample.Timestamp); rec != nil {
		events = append(events, models.Event{Type: models.EventIngest, Record: rec})
	}

	s := sample
	e.lastSample = &s
	e.lastOcc = occ
	e.lastSnapshot = snap

	events = append(events, models.Event{Type: models.EventTracker, Snapshot: &snap})
	return events, snap
}

// Tick advances time-dependent state without new sensor values by
// replaying the last sample at the tick timestamp. A tick before any
// sample is a no-op.
func (e *Engine) Tick(now time.Time) ([]models.Event, models.Snapshot) {
	if e.lastSample == nil {
		return nil, models.Snapshot{}
	}
	sample := *e.lastSample
	sample.Timestamp = now

	events, snap := e.Ingest(sample, e.lastOcc)

	if e.cfg.TankRefill.Enabled {
		e.tankRefill.Evaluate(now)
	}
	return events, snap
}

// recordCompletedSession dedupes the tracker's last session by value
// signature and fans it out to the refill detector and baseline store.
func (e *Engine) recordCompletedSession(snap models.Snapshot, occ models.OccupancyInput, now time.Time) *models.SessionRecord {
	last := snap.LastSession
	if last == nil || last.Volume <= 0 || last.DurationS <= 0 {
		return nil
	}

	// Repeated reads of the same completed session carry the same
	// (volume, duration) pair; record each pair once
	sig := sessionSig{volume: round4(last.Volume), durationS: last.DurationS}
	if e.lastSessionSig != nil && *e.lastSessionSig == sig {
		return nil
	}
	e.lastSessionSig = &sig

	occClass := e.classifier.Classify(occ.RawState, occ.PersonCount, now.In(e.loc))

	rec := models.SessionRecord{
		EndedAt:        last.EndTime,
		Volume:         models.Round6(last.Volume),
		DurationS:      last.DurationS,
		AvgFlow:        models.Round6(last.AverageFlow),
		HotPct:         models.Round2(last.HotWaterPct()),
		Gaps:           last.GappedSessions,
		OccupancyClass: occClass,
		PeopleBin:      occupancy.PeopleBin(occ.PersonCount),
	}

	e.sessions = append(e.sessions, rec)
	if len(e.sessions) > maxSessionHistory {
		e.sessions = e.sessions[len(e.sessions)-maxSessionHistory:]
	}

	if e.cfg.TankRefill.Enabled {
		e.tankRefill.Record(rec.Volume, rec.DurationS, now)
	}

	if e.cfg.Intelligent.Learning {
		local := last.EndTime.In(e.loc)
		e.stats.Update(
			local.Hour(),
			baseline.DayType(local),
			occClass,
			rec.PeopleBin,
			rec.DurationS,
			rec.AvgFlow,
			now,
		)
	}

	e.dirty = true
	log.Printf("[Engine] Session recorded: volume=%.3f duration=%ds avg_flow=%.3f", rec.Volume, rec.DurationS, rec.AvgFlow)
	return &rec
}

// trackLowFlow maintains the drip timer: continuous time the flow has
// sat in (0, DripMaxFlow]
func (e *Engine) trackLowFlow(flow float64, now time.Time) {
	if flow > 0 && flow <= detect.DripMaxFlow {
		if e.lowFlowSince == nil {
			ts := now
			e.lowFlowSince = &ts
		}
	} else {
		e.lowFlowSince = nil
	}
}

func (e *Engine) lowFlowElapsed(now time.Time) int {
	if e.lowFlowSince == nil {
		return 0
	}
	s := int(now.Sub(*e.lowFlowSince).Seconds())
	if s < 0 {
		return 0
	}
	return s
}

// Risk evaluates the intelligent-leak estimator against the current
// session and the learned baseline.
func (e *Engine) Risk(now time.Time) detect.RiskResult {
	local := now.In(e.loc)
	occClass := e.classifier.Classify(e.lastOcc.RawState, e.lastOcc.PersonCount, local)

	q := e.stats.Query(
		local.Hour(),
		baseline.DayType(local),
		occClass,
		occupancy.PeopleBin(e.lastOcc.PersonCount),
	)

	return detect.EstimateRisk(detect.RiskInput{
		ElapsedS:       e.lastSnapshot.CurrentDurationS,
		FlowRate:       e.lastSnapshot.FlowRate,
		LowFlowS:       e.lowFlowElapsed(now),
		Sensitivity:    e.cfg.Intelligent.Sensitivity,
		OccupancyClass: occClass,
		Baseline:       q,
	})
}

// LowFlowStatus returns the low-flow detector internals
func (e *Engine) LowFlowStatus(now time.Time) detect.LowFlowStatus {
	if !e.cfg.LowFlow.Enabled {
		return detect.LowFlowStatus{Stage: detect.StageIdle}
	}
	flow := 0.0
	if e.lastSample != nil {
		flow = e.lastSample.FlowRate
	}
	return e.lowFlow.Update(flow, now)
}

// TankRefillStatus returns the refill detector internals
func (e *Engine) TankRefillStatus(now time.Time) detect.TankRefillStatus {
	if !e.cfg.TankRefill.Enabled {
		return detect.TankRefillStatus{}
	}
	return e.tankRefill.Evaluate(now)
}

// Snapshot returns the last tracker snapshot
func (e *Engine) Snapshot() models.Snapshot {
	return e.lastSnapshot
}

// Sessions returns the recorded session history, newest last
func (e *Engine) Sessions() []models.SessionRecord {
	return e.sessions
}

// DailySummaries returns the computed daily summaries keyed by day
func (e *Engine) DailySummaries() map[string]*models.DailySummary {
	return e.daily
}

// BaselineQuery exposes the fallback-ladder lookup for the API
func (e *Engine) BaselineQuery(hour int, dayType, occClass, peopleBin string) baseline.QueryResult {
	return e.stats.Query(hour, dayType, occClass, peopleBin)
}

// LastSampleAge reports how stale the feed is; ok is false before the
// first sample arrives.
func (e *Engine) LastSampleAge(now time.Time) (time.Duration, bool) {
	if e.lastSample == nil {
		return 0, false
	}
	age := now.Sub(e.lastSample.Timestamp)
	if age < 0 {
		age = 0
	}
	return age, true
}

// Dirty reports whether state changed since the last ClearDirty
func (e *Engine) Dirty() bool {
	return e.dirty
}

// ClearDirty acknowledges a completed save
func (e *Engine) ClearDirty() {
	e.dirty = false
}

// MarshalState serializes the persisted document
func (e *Engine) MarshalState() ([]byte, error) {
	st := State{
		Sessions: e.sessions,
		Daily:    e.daily,
		Hourly:   e.stats.Hourly,
		Context:  e.stats.Context,
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal engine state: %w", err)
	}
	return data, nil
}

// RestoreState loads a previously saved document. Nil or empty input
// initializes empty state; a corrupt document is logged and dropped.
func (e *Engine) RestoreState(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[Engine] State load failed, starting empty: %v", err)
		return nil
	}

	e.sessions = st.Sessions
	if st.Daily != nil {
		e.daily = st.Daily
	}
	e.stats.Hourly = st.Hourly
	e.stats.Context = st.Context
	e.stats.Init()
	return nil
}
