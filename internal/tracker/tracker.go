package tracker

import (
	"time"

	"github.com/markaggar/water-monitor-go/internal/config"
	"github.com/markaggar/water-monitor-go/internal/models"
)

// SessionTracker converts a stream of flow/volume samples into usage
// sessions with gap tolerance and hot water attribution.
//
// Time is charged to the phase that was in effect during the elapsed
// interval, so each update runs in two explicit steps: accumulate using
// the previous flags, then evaluate transitions and store the new flags.
type SessionTracker struct {
	cfg config.TrackerConfig

	// Current inputs
	flowRate       float64
	volumeTotal    float64
	hotWaterActive bool

	// Previous flags, used for accumulation decisions
	prevSessionActive  bool
	prevGapActive      bool
	prevHotWaterActive bool

	// Session state
	sessionActive        bool
	gapActive            bool
	originalSessionStart *time.Time
	currentSessionStart  *time.Time
	sessionStartVolume   float64
	gappedSessionsCount  int

	// Time accumulation
	lastUpdate          *time.Time
	sessionDurationSecs int
	hotWaterSecs        int

	// Intermediate session snapshot taken on gap entry
	intermediateExists      bool
	intermediateStart       *time.Time
	intermediateDurationS   int
	intermediateVolume      float64
	intermediateHotDuration int

	// Candidate end time for continuity-window finalization
	endCandidateTime *time.Time

	lastSession *models.Session
}

// NewSessionTracker creates a tracker with the given configuration.
// Negative thresholds are clamped once here.
func NewSessionTracker(cfg config.TrackerConfig) *SessionTracker {
	if cfg.MinSessionVolume < 0 {
		cfg.MinSessionVolume = 0
	}
	if cfg.MinSessionDurationS < 0 {
		cfg.MinSessionDurationS = 0
	}
	if cfg.GapToleranceS < 0 {
		cfg.GapToleranceS = 0
	}
	if cfg.ContinuityWindowS < 0 {
		cfg.ContinuityWindowS = 0
	}
	return &SessionTracker{cfg: cfg}
}

// LastSession returns the most recent session that passed the minimum
// volume/duration gates, or nil.
func (t *SessionTracker) LastSession() *models.Session {
	return t.lastSession
}

// accumulate charges the elapsed interval to whatever was active before
// this update. Negative deltas (clock corrections) are dropped.
func (t *SessionTracker) accumulate(timestamp time.Time) {
	if t.lastUpdate == nil {
		ts := timestamp
		t.lastUpdate = &ts
		return
	}

	delta := int(timestamp.Sub(*t.lastUpdate).Seconds())
	if delta < 0 {
		delta = 0
	}

	if t.prevSessionActive {
		t.sessionDurationSecs += delta
		if t.prevHotWaterActive {
			t.hotWaterSecs += delta
		}
	}

	ts := timestamp
	t.lastUpdate = &ts
}

// Update advances the tracker with new sensor values and returns the
// resulting snapshot. It never fails; malformed values are clamped.
func (t *SessionTracker) Update(flowRate, volumeTotal float64, hotWaterActive bool, timestamp time.Time) models.Snapshot {
	// Phase 1: charge elapsed time to the previous flags
	t.accumulate(timestamp)

	// Phase 2: take the new inputs and evaluate transitions
	t.flowRate = max(0, flowRate)
	t.volumeTotal = max(0, volumeTotal)
	t.hotWaterActive = hotWaterActive

	// IDLE -> ACTIVE: flow appeared
	if t.flowRate > 0 && !t.sessionActive {
		ts := timestamp
		t.sessionActive = true
		t.gapActive = false
		t.originalSessionStart = &ts
		t.currentSessionStart = &ts
		t.sessionStartVolume = t.volumeTotal
		t.clearIntermediate()
		t.gappedSessionsCount = 0
		t.endCandidateTime = nil
		t.sessionDurationSecs = 0
		t.hotWaterSecs = 0
	}

	// ACTIVE -> GAP: flow stopped
	if t.sessionActive && t.flowRate == 0 && !t.gapActive {
		t.gapActive = true
		if t.currentSessionStart != nil {
			t.intermediateExists = true
			t.intermediateStart = t.currentSessionStart
			t.intermediateDurationS = t.sessionDurationSecs
			t.intermediateVolume = max(0, t.volumeTotal-t.sessionStartVolume)
			t.intermediateHotDuration = t.hotWaterSecs
		}
		ts := timestamp
		t.endCandidateTime = &ts
	}

	// GAP -> ACTIVE: flow resumed before finalization
	if t.sessionActive && t.flowRate > 0 && t.gapActive {
		t.gapActive = false
		t.gappedSessionsCount++
		t.endCandidateTime = nil
	}

	// GAP -> finalize: the continuity window elapsed with no flow
	if t.sessionActive && t.flowRate == 0 && t.endCandidateTime != nil &&
		timestamp.Sub(*t.endCandidateTime).Seconds() >= float64(t.cfg.ContinuityWindowS) {
		t.finalize(timestamp)
	}

	snap := t.buildSnapshot()

	// Cache flags for the next update's accumulation step
	t.prevSessionActive = t.sessionActive
	t.prevGapActive = t.gapActive
	t.prevHotWaterActive = t.hotWaterActive

	return snap
}

func (t *SessionTracker) finalize(timestamp time.Time) {
	start := timestamp
	if t.currentSessionStart != nil {
		start = *t.currentSessionStart
	}

	duration := t.sessionDurationSecs
	volume := max(0, t.volumeTotal-t.sessionStartVolume)
	avgFlow := 0.0
	if duration > 0 {
		avgFlow = volume / float64(duration) * 60
	}

	session := &models.Session{
		StartTime:        start,
		EndTime:          timestamp,
		DurationS:        duration,
		Volume:           volume,
		HotWaterDuration: t.hotWaterSecs,
		GappedSessions:   t.gappedSessionsCount,
		AverageFlow:      avgFlow,
	}

	// Sessions failing the minimum gates are discarded, but state
	// resets either way
	if volume >= t.cfg.MinSessionVolume && duration >= t.cfg.MinSessionDurationS {
		t.lastSession = session
	}

	t.sessionActive = false
	t.gapActive = false
	t.originalSessionStart = nil
	t.currentSessionStart = nil
	t.sessionStartVolume = 0
	t.gappedSessionsCount = 0
	t.clearIntermediate()
	t.endCandidateTime = nil
	t.sessionDurationSecs = 0
	t.hotWaterSecs = 0
}

func (t *SessionTracker) clearIntermediate() {
	t.intermediateExists = false
	t.intermediateStart = nil
	t.intermediateDurationS = 0
	t.intermediateVolume = 0
	t.intermediateHotDuration = 0
}

func (t *SessionTracker) buildSnapshot() models.Snapshot {
	currentVolume := 0.0
	currentDuration := 0
	if t.sessionActive {
		currentVolume = max(0, t.volumeTotal-t.sessionStartVolume)
		currentDuration = t.sessionDurationSecs
	}

	currentAvgFlow := 0.0
	currentHotPct := 0.0
	if currentDuration > 0 {
		currentAvgFlow = currentVolume / float64(currentDuration) * 60
		currentHotPct = models.Round1(float64(t.hotWaterSecs) / float64(currentDuration) * 100)
	}

	intermediateAvgFlow := 0.0
	intermediateHotPct := 0.0
	if t.intermediateExists && t.intermediateDurationS > 0 {
		intermediateAvgFlow = t.intermediateVolume / float64(t.intermediateDurationS) * 60
		intermediateHotPct = models.Round1(float64(t.intermediateHotDuration) / float64(t.intermediateDurationS) * 100)
	}

	debugState := models.PhaseIdle
	if t.sessionActive {
		debugState = models.PhaseActive
	}
	if t.gapActive {
		debugState = models.PhaseGap
	}

	return models.Snapshot{
		SessionActive: t.sessionActive,
		GapActive:     t.gapActive,
		DebugState:    debugState,

		CurrentStart:     t.currentSessionStart,
		OriginalStart:    t.originalSessionStart,
		CurrentVolume:    currentVolume,
		CurrentDurationS: currentDuration,
		CurrentAvgFlow:   currentAvgFlow,
		CurrentHotPct:    currentHotPct,

		IntermediateExists:      t.intermediateExists,
		IntermediateStart:       t.intermediateStart,
		IntermediateDurationS:   t.intermediateDurationS,
		IntermediateVolume:      t.intermediateVolume,
		IntermediateAvgFlow:     intermediateAvgFlow,
		IntermediateHotDuration: t.intermediateHotDuration,
		IntermediateHotPct:      intermediateHotPct,

		LastSession: t.lastSession,

		FlowRate:        t.flowRate,
		TickCadenceSecs: t.tickCadence(),
	}
}

// tickCadence reports the periodic update interval the host should run:
// 1s while gap/continuation timing is live, 5s during active flow, none
// when idle.
func (t *SessionTracker) tickCadence() int {
	if t.gapActive || (t.sessionActive && t.flowRate == 0) {
		return models.TickCadenceGap
	}
	if t.sessionActive {
		return models.TickCadenceFlow
	}
	return models.TickCadenceNone
}
