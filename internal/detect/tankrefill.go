package detect

import (
	"time"

	"github.com/markaggar/water-monitor-go/internal/config"
)

// refillEvent is one candidate refill kept in the rolling window
type refillEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Volume    float64   `json:"volume"`
	DurationS int       `json:"duration_s"`
}

// TankRefillStatus exposes the detector state
type TankRefillStatus struct {
	IsOn            bool       `json:"is_on"`
	SimilarCount    int        `json:"similar_count"`
	ReferenceVolume float64    `json:"reference_volume"`
	WindowEvents    int        `json:"window_events"`
	LastEventAt     *time.Time `json:"last_event_at,omitempty"`
	CooldownUntil   *time.Time `json:"cooldown_until,omitempty"`
}

// TankRefillDetector flags toilet-tank style leaks: a failing flapper
// produces a string of near-identical small refill sessions. Completed
// sessions are screened by volume/duration gates, kept in a time-bounded
// deque, and grouped by similarity to the most recent refill.
type TankRefillDetector struct {
	cfg config.TankRefillConfig

	events        []refillEvent
	triggered     bool
	lastSig       *refillSig
	lastEventAt   *time.Time // survives window purging, drives idle clear
	cooldownUntil *time.Time
}

// refillSig deduplicates repeated reads of the same completed session
type refillSig struct {
	volume    float64
	durationS int
}

// NewTankRefillDetector creates the detector. Config is assumed normalized.
func NewTankRefillDetector(cfg config.TankRefillConfig) *TankRefillDetector {
	return &TankRefillDetector{cfg: cfg}
}

// Record offers a completed session to the detector and re-evaluates.
// The same (volume, duration) pair is only counted once.
func (d *TankRefillDetector) Record(volume float64, durationS int, now time.Time) TankRefillStatus {
	sig := refillSig{volume: volume, durationS: durationS}
	if d.lastSig != nil && *d.lastSig == sig {
		return d.Evaluate(now)
	}
	d.lastSig = &sig

	if d.admits(volume, durationS) {
		d.events = append(d.events, refillEvent{Timestamp: now, Volume: volume, DurationS: durationS})
		ts := now
		d.lastEventAt = &ts
	}
	return d.Evaluate(now)
}

func (d *TankRefillDetector) admits(volume float64, durationS int) bool {
	if volume < d.cfg.MinVolume {
		return false
	}
	if d.cfg.MaxVolume > 0 && volume > d.cfg.MaxVolume {
		return false
	}
	if d.cfg.MinDurationS > 0 && durationS < d.cfg.MinDurationS {
		return false
	}
	if d.cfg.MaxDurationS > 0 && durationS > d.cfg.MaxDurationS {
		return false
	}
	return true
}

// Evaluate purges stale candidates and recomputes the trigger state.
// Called on every record and on periodic ticks so idle clearing works
// without new events.
func (d *TankRefillDetector) Evaluate(now time.Time) TankRefillStatus {
	d.purge(now)

	similar, reference := d.similarCount()

	if !d.triggered {
		if similar >= d.cfg.RepeatCount && !d.inCooldown(now) {
			d.triggered = true
		}
	} else if d.idleFor(now) >= d.cfg.ClearIdleS {
		// No matching refill for the clear window: stand down
		d.triggered = false
		if d.cfg.CooldownS > 0 {
			u := now.Add(time.Duration(d.cfg.CooldownS) * time.Second)
			d.cooldownUntil = &u
		}
	}

	return d.status(similar, reference)
}

func (d *TankRefillDetector) purge(now time.Time) {
	cutoff := now.Add(-time.Duration(d.cfg.WindowS) * time.Second)
	kept := d.events[:0]
	for _, e := range d.events {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	d.events = kept
}

// similarCount groups candidates around the most recent event's volume
func (d *TankRefillDetector) similarCount() (int, float64) {
	if len(d.events) == 0 {
		return 0, 0
	}

	reference := d.events[len(d.events)-1].Volume
	tol := reference * d.cfg.TolerancePct / 100

	count := 0
	for _, e := range d.events {
		if e.Volume >= reference-tol && e.Volume <= reference+tol {
			count++
		}
	}
	return count, reference
}

func (d *TankRefillDetector) idleFor(now time.Time) int {
	if d.lastEventAt == nil {
		return d.cfg.ClearIdleS
	}
	idle := int(now.Sub(*d.lastEventAt).Seconds())
	if idle < 0 {
		idle = 0
	}
	return idle
}

func (d *TankRefillDetector) inCooldown(now time.Time) bool {
	return d.cooldownUntil != nil && now.Before(*d.cooldownUntil)
}

func (d *TankRefillDetector) status(similar int, reference float64) TankRefillStatus {
	st := TankRefillStatus{
		IsOn:            d.triggered,
		SimilarCount:    similar,
		ReferenceVolume: reference,
		WindowEvents:    len(d.events),
		CooldownUntil:   d.cooldownUntil,
		LastEventAt:     d.lastEventAt,
	}
	return st
}
