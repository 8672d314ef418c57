package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaggar/water-monitor-go/internal/config"
)

var lf0 = time.Date(2026, 8, 1, 2, 0, 0, 0, time.UTC)

func lowFlowTestConfig() config.LowFlowConfig {
	return config.LowFlowConfig{
		Enabled:      true,
		MaxLowFlow:   0.5,
		SeedS:        60,
		MinS:         300,
		ClearIdleS:   30,
		ClearOnHighS: 0,
		CooldownS:    0,
		CountingMode: config.CountingModeNonzero,
	}
}

// feed advances the detector with 1s ticks of constant flow
func feed(d *LowFlowDetector, start time.Time, flow float64, seconds int) (LowFlowStatus, time.Time) {
	var st LowFlowStatus
	ts := start
	for i := 0; i <= seconds; i++ {
		ts = start.Add(time.Duration(i) * time.Second)
		st = d.Update(flow, ts)
	}
	return st, ts
}

func TestLowFlowTriggerAndClear(t *testing.T) {
	d := NewLowFlowDetector(lowFlowTestConfig())

	// Constant 0.3 for seed + min + 1 seconds triggers
	st, ts := feed(d, lf0, 0.3, 60+300+1)
	assert.Equal(t, StageTriggered, st.Stage)
	assert.True(t, st.IsOn)

	// Zero flow for clear_idle_s (plus the tick charging it) clears
	st, _ = feed(d, ts.Add(time.Second), 0, 31)
	assert.Equal(t, StageIdle, st.Stage)
	assert.False(t, st.IsOn)
}

func TestLowFlowSeedingAbortsOnZero(t *testing.T) {
	d := NewLowFlowDetector(lowFlowTestConfig())

	st, ts := feed(d, lf0, 0.3, 30)
	assert.Equal(t, StageSeeding, st.Stage)
	assert.Equal(t, 30, st.SeedProgressS)

	st = d.Update(0, ts.Add(time.Second))
	assert.Equal(t, StageIdle, st.Stage)
	assert.Equal(t, 0, st.SeedProgressS)
}

func TestLowFlowCountingStrictReset(t *testing.T) {
	cfg := lowFlowTestConfig()
	cfg.CountingMode = config.CountingModeInRange
	d := NewLowFlowDetector(cfg)

	st, ts := feed(d, lf0, 0.3, 120)
	assert.Equal(t, StageCounting, st.Stage)
	assert.True(t, st.CountS > 0)

	// One above-range reading drops all counting progress
	st = d.Update(2.0, ts.Add(time.Second))
	assert.NotEqual(t, StageCounting, st.Stage)
	assert.Equal(t, 0, st.CountS)

	// Back to low flow: seeding starts over, not counting
	st = d.Update(0.3, ts.Add(2*time.Second))
	assert.Equal(t, StageSeeding, st.Stage)
}

func TestLowFlowInRangeModeIgnoresHighFlowSeeding(t *testing.T) {
	cfg := lowFlowTestConfig()
	cfg.CountingMode = config.CountingModeInRange
	d := NewLowFlowDetector(cfg)

	// High flow never seeds toward a trigger in range mode
	st, _ := feed(d, lf0, 3.0, 120)
	assert.Equal(t, StageSeeding, st.Stage)
	assert.Equal(t, 0, st.SeedProgressS)
}

func TestLowFlowClearOnSustainedHigh(t *testing.T) {
	cfg := lowFlowTestConfig()
	cfg.ClearOnHighS = 20
	d := NewLowFlowDetector(cfg)

	st, ts := feed(d, lf0, 0.3, 60+300+1)
	require.Equal(t, StageTriggered, st.Stage)

	// Sustained high flow (someone opened a tap) clears the alert
	st, _ = feed(d, ts.Add(time.Second), 4.0, 21)
	assert.Equal(t, StageIdle, st.Stage)
}

func TestLowFlowCooldownSuppressesRetrigger(t *testing.T) {
	cfg := lowFlowTestConfig()
	cfg.CooldownS = 600
	d := NewLowFlowDetector(cfg)

	st, ts := feed(d, lf0, 0.3, 60+300+1)
	require.Equal(t, StageTriggered, st.Stage)

	st, ts = feed(d, ts.Add(time.Second), 0, 31)
	require.Equal(t, StageIdle, st.Stage)
	require.NotNil(t, st.CooldownUntil)

	// Same leak signature again, still inside cooldown: counting
	// proceeds but triggered is suppressed
	st, _ = feed(d, ts.Add(time.Second), 0.3, 60+300+60)
	assert.Equal(t, StageCounting, st.Stage)
	assert.False(t, st.IsOn)
}

func TestLowFlowRetriggersAfterCooldownExpiry(t *testing.T) {
	cfg := lowFlowTestConfig()
	cfg.CooldownS = 10
	d := NewLowFlowDetector(cfg)

	st, ts := feed(d, lf0, 0.3, 60+300+1)
	require.Equal(t, StageTriggered, st.Stage)
	st, ts = feed(d, ts.Add(time.Second), 0, 31)
	require.Equal(t, StageIdle, st.Stage)

	// Cooldown is only 10s; a fresh full seed+count cycle passes it
	st, _ = feed(d, ts.Add(time.Second), 0.3, 60+300+1)
	assert.Equal(t, StageTriggered, st.Stage)
}

func TestLowFlowTickCadence(t *testing.T) {
	d := NewLowFlowDetector(lowFlowTestConfig())

	st := d.Update(0, lf0)
	assert.Equal(t, 0, st.TickCadenceSecs)

	st = d.Update(0.3, lf0.Add(time.Second))
	assert.Equal(t, 1, st.TickCadenceSecs)
}
