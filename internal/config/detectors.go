package config

// Counting modes for the low-flow detector
const (
	CountingModeNonzero = "nonzero_wallclock" // any nonzero flow accrues
	CountingModeInRange = "in_range_only"     // only flow in (0, MaxLowFlow] accrues
)

// TrackerConfig configures session segmentation
type TrackerConfig struct {
	MinSessionVolume    float64 // sessions below this volume are discarded
	MinSessionDurationS int     // sessions shorter than this are discarded
	GapToleranceS       int     // short-gap classification hint; finalization uses the continuity window
	ContinuityWindowS   int     // zero-flow time after which a session finalizes
}

// LowFlowConfig configures the sustained-low-flow leak detector
type LowFlowConfig struct {
	Enabled      bool
	MaxLowFlow   float64 // upper bound defining "low" flow
	SeedS        int     // continuous low flow required before counting starts
	MinS         int     // accumulated qualifying time to trigger
	ClearIdleS   int     // zero-flow time to clear a trigger
	ClearOnHighS int     // sustained high-flow time to clear; 0 disables
	CooldownS    int     // re-trigger suppression after clearing
	CountingMode string
}

// TankRefillConfig configures the repeated-refill leak detector
type TankRefillConfig struct {
	Enabled      bool
	MinVolume    float64 // minimum session volume to count as a refill
	MaxVolume    float64 // 0 disables the upper bound
	MinDurationS int     // 0 disables
	MaxDurationS int     // 0 disables
	TolerancePct float64 // similarity window around the reference volume
	RepeatCount  int     // similar refills needed to trigger
	WindowS      int     // time window holding candidates
	ClearIdleS   int     // no matching refills for this long clears
	CooldownS    int
}

// IntelligentConfig configures the baseline-driven risk estimator
type IntelligentConfig struct {
	Enabled     bool
	Learning    bool    // feed completed sessions into the baseline store
	Sensitivity float64 // 0..100, higher triggers earlier

	// Occupancy state sets, matched case-insensitively
	AwayStates     []string
	VacationStates []string
}

// MonitorConfig bundles all detector configuration
type MonitorConfig struct {
	Tracker     TrackerConfig
	LowFlow     LowFlowConfig
	TankRefill  TankRefillConfig
	Intelligent IntelligentConfig
}

// DefaultMonitorConfig returns the stock configuration
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Tracker: TrackerConfig{
			MinSessionVolume:    0.0,
			MinSessionDurationS: 0,
			GapToleranceS:       5,
			ContinuityWindowS:   3,
		},
		LowFlow: LowFlowConfig{
			Enabled:      false,
			MaxLowFlow:   0.5,
			SeedS:        60,
			MinS:         300,
			ClearIdleS:   30,
			ClearOnHighS: 0,
			CooldownS:    0,
			CountingMode: CountingModeNonzero,
		},
		TankRefill: TankRefillConfig{
			Enabled:      false,
			MinVolume:    0.3,
			MaxVolume:    0,
			MinDurationS: 0,
			MaxDurationS: 0,
			TolerancePct: 10.0,
			RepeatCount:  3,
			WindowS:      15 * 60,
			ClearIdleS:   30 * 60,
			CooldownS:    0,
		},
		Intelligent: IntelligentConfig{
			Enabled:        false,
			Learning:       true,
			Sensitivity:    50,
			AwayStates:     []string{"Away"},
			VacationStates: []string{"On Vacation", "Returning from Vacation"},
		},
	}
}

// Normalize clamps out-of-range values to their nearest valid value.
// Validation happens once at construction, never per tick.
func (c *MonitorConfig) Normalize() {
	t := &c.Tracker
	if t.MinSessionVolume < 0 {
		t.MinSessionVolume = 0
	}
	if t.MinSessionDurationS < 0 {
		t.MinSessionDurationS = 0
	}
	if t.GapToleranceS < 0 {
		t.GapToleranceS = 0
	}
	if t.ContinuityWindowS < 0 {
		t.ContinuityWindowS = 0
	}

	lf := &c.LowFlow
	if lf.MaxLowFlow < 0 {
		lf.MaxLowFlow = 0
	}
	if lf.SeedS < 0 {
		lf.SeedS = 0
	}
	if lf.MinS < 0 {
		lf.MinS = 0
	}
	if lf.ClearIdleS < 0 {
		lf.ClearIdleS = 0
	}
	if lf.ClearOnHighS < 0 {
		lf.ClearOnHighS = 0
	}
	if lf.CooldownS < 0 {
		lf.CooldownS = 0
	}
	if lf.CountingMode != CountingModeInRange {
		lf.CountingMode = CountingModeNonzero
	}

	tr := &c.TankRefill
	if tr.MinVolume < 0 {
		tr.MinVolume = 0
	}
	if tr.MaxVolume < 0 {
		tr.MaxVolume = 0
	}
	if tr.MinDurationS < 0 {
		tr.MinDurationS = 0
	}
	if tr.MaxDurationS < 0 {
		tr.MaxDurationS = 0
	}
	if tr.TolerancePct < 0 {
		tr.TolerancePct = 0
	}
	if tr.RepeatCount < 1 {
		tr.RepeatCount = 1
	}
	if tr.WindowS < 0 {
		tr.WindowS = 0
	}
	if tr.ClearIdleS < 0 {
		tr.ClearIdleS = 0
	}
	if tr.CooldownS < 0 {
		tr.CooldownS = 0
	}

	in := &c.Intelligent
	if in.Sensitivity < 0 {
		in.Sensitivity = 0
	}
	if in.Sensitivity > 100 {
		in.Sensitivity = 100
	}
}
