package detect

import (
	"time"

	"github.com/markaggar/water-monitor-go/internal/config"
)

// Low-flow detector stages
const (
	StageIdle      = "idle"
	StageSeeding   = "seeding"
	StageCounting  = "counting"
	StageTriggered = "triggered"
)

// LowFlowStatus exposes the detector internals for transparency and
// host-side display.
type LowFlowStatus struct {
	Stage         string     `json:"stage"`
	IsOn          bool       `json:"is_on"`
	FlowRate      float64    `json:"flow_rate"`
	SeedProgressS int        `json:"seed_progress_s"`
	CountS        int        `json:"count_progress_s"`
	IdleZeroS     int        `json:"idle_zero_s"`
	HighFlowS     int        `json:"high_flow_s"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`

	// Desired tick interval in seconds; 0 = event-driven only
	TickCadenceSecs int `json:"tick_cadence_s"`
}

// LowFlowDetector flags sustained low flow, the signature of a slow
// leak. It advances only from injected timestamps, never wall clock,
// and uses the same two-phase previous-value accumulation as the
// session tracker: the elapsed interval is charged to the flow that was
// in effect before this update.
type LowFlowDetector struct {
	cfg config.LowFlowConfig

	stage    string
	flowRate float64
	prevFlow float64

	seedProgressS int
	countS        int
	idleZeroS     int
	highFlowS     int
	cooldownUntil *time.Time

	lastUpdate *time.Time
}

// NewLowFlowDetector creates the detector. Config is assumed normalized.
func NewLowFlowDetector(cfg config.LowFlowConfig) *LowFlowDetector {
	return &LowFlowDetector{cfg: cfg, stage: StageIdle}
}

func (d *LowFlowDetector) qualifying(flow float64) bool {
	if flow <= 0 {
		return false
	}
	if d.cfg.CountingMode == config.CountingModeInRange {
		return flow <= d.cfg.MaxLowFlow
	}
	return true
}

// Update advances the state machine with a new flow reading (or the
// previous reading re-sent on a periodic tick) and returns the status.
func (d *LowFlowDetector) Update(flowRate float64, timestamp time.Time) LowFlowStatus {
	if flowRate < 0 {
		flowRate = 0
	}

	delta := 0
	if d.lastUpdate != nil {
		delta = int(timestamp.Sub(*d.lastUpdate).Seconds())
		if delta < 0 {
			delta = 0
		}
	}
	ts := timestamp
	d.lastUpdate = &ts

	// Phase 1: charge the elapsed interval to the previous flow value
	d.accumulate(delta)

	// Phase 2: evaluate transitions on the new value
	d.flowRate = flowRate
	d.evaluate(timestamp)

	d.prevFlow = flowRate
	return d.status()
}

func (d *LowFlowDetector) accumulate(delta int) {
	if delta == 0 {
		return
	}

	switch d.stage {
	case StageSeeding:
		if d.qualifying(d.prevFlow) {
			d.seedProgressS += delta
		} else {
			// A single non-qualifying interval drops seeding progress
			d.seedProgressS = 0
		}
	case StageCounting:
		if d.qualifying(d.prevFlow) {
			d.countS += delta
		} else {
			// Strict reset: one violating interval returns to idle
			d.toIdle(nil)
		}
	case StageTriggered:
		if d.prevFlow == 0 {
			d.idleZeroS += delta
		} else {
			d.idleZeroS = 0
		}
		if d.prevFlow > d.cfg.MaxLowFlow {
			d.highFlowS += delta
		} else {
			d.highFlowS = 0
		}
	}
}

func (d *LowFlowDetector) evaluate(timestamp time.Time) {
	switch d.stage {
	case StageIdle:
		if d.flowRate > 0 {
			d.stage = StageSeeding
			d.seedProgressS = 0
		}

	case StageSeeding:
		if d.flowRate == 0 {
			d.toIdle(nil)
			return
		}
		if d.seedProgressS >= d.cfg.SeedS {
			d.stage = StageCounting
			d.countS = 0
		}

	case StageCounting:
		if !d.qualifying(d.flowRate) {
			d.toIdle(nil)
			// Nonzero high flow immediately starts a fresh seed
			if d.flowRate > 0 {
				d.stage = StageSeeding
			}
			return
		}
		if d.countS >= d.cfg.MinS && !d.inCooldown(timestamp) {
			d.stage = StageTriggered
			d.idleZeroS = 0
			d.highFlowS = 0
		}

	case StageTriggered:
		if d.idleZeroS >= d.cfg.ClearIdleS {
			d.clear(timestamp)
			return
		}
		if d.cfg.ClearOnHighS > 0 && d.highFlowS >= d.cfg.ClearOnHighS {
			d.clear(timestamp)
		}
	}
}

func (d *LowFlowDetector) inCooldown(timestamp time.Time) bool {
	return d.cooldownUntil != nil && timestamp.Before(*d.cooldownUntil)
}

// clear leaves the triggered stage and opens the cooldown window
func (d *LowFlowDetector) clear(timestamp time.Time) {
	var until *time.Time
	if d.cfg.CooldownS > 0 {
		u := timestamp.Add(time.Duration(d.cfg.CooldownS) * time.Second)
		until = &u
	}
	d.toIdle(until)
}

func (d *LowFlowDetector) toIdle(cooldownUntil *time.Time) {
	d.stage = StageIdle
	d.seedProgressS = 0
	d.countS = 0
	d.idleZeroS = 0
	d.highFlowS = 0
	if cooldownUntil != nil {
		d.cooldownUntil = cooldownUntil
	}
}

func (d *LowFlowDetector) status() LowFlowStatus {
	return LowFlowStatus{
		Stage:           d.stage,
		IsOn:            d.stage == StageTriggered,
		FlowRate:        d.flowRate,
		SeedProgressS:   d.seedProgressS,
		CountS:          d.countS,
		IdleZeroS:       d.idleZeroS,
		HighFlowS:       d.highFlowS,
		CooldownUntil:   d.cooldownUntil,
		TickCadenceSecs: d.tickCadence(),
	}
}

// tickCadence asks for 1s ticks only while a timing-sensitive countdown
// is running, 5s during steady triggered flow, nothing when idle.
func (d *LowFlowDetector) tickCadence() int {
	switch d.stage {
	case StageSeeding, StageCounting:
		return 1
	case StageTriggered:
		if d.flowRate == 0 || d.flowRate > d.cfg.MaxLowFlow {
			return 1
		}
		return 5
	}
	return 0
}
