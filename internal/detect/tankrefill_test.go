package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaggar/water-monitor-go/internal/config"
)

var tk0 = time.Date(2026, 8, 1, 4, 0, 0, 0, time.UTC)

func tankTestConfig() config.TankRefillConfig {
	return config.TankRefillConfig{
		Enabled:      true,
		MinVolume:    0.3,
		MaxVolume:    0,
		TolerancePct: 10.0,
		RepeatCount:  3,
		WindowS:      900,
		ClearIdleS:   1800,
		CooldownS:    0,
	}
}

func TestTankRefillTriggersOnThreeSimilar(t *testing.T) {
	d := NewTankRefillDetector(tankTestConfig())

	st := d.Record(1.00, 45, tk0)
	assert.False(t, st.IsOn)
	assert.Equal(t, 1, st.SimilarCount)

	st = d.Record(1.04, 44, tk0.Add(4*time.Minute))
	assert.False(t, st.IsOn)
	assert.Equal(t, 2, st.SimilarCount)

	st = d.Record(0.97, 46, tk0.Add(8*time.Minute))
	assert.True(t, st.IsOn)
	assert.Equal(t, 3, st.SimilarCount)
}

func TestTankRefillDissimilarDoesNotReset(t *testing.T) {
	d := NewTankRefillDetector(tankTestConfig())
	d.Record(1.00, 45, tk0)
	d.Record(1.04, 44, tk0.Add(4*time.Minute))
	st := d.Record(0.97, 46, tk0.Add(8*time.Minute))
	require.True(t, st.IsOn)

	// A shower-sized session inside the window: the earlier refills stay
	// recorded and the trigger holds
	st = d.Record(25.0, 600, tk0.Add(10*time.Minute))
	assert.True(t, st.IsOn)
	assert.Equal(t, 4, st.WindowEvents)
}

func TestTankRefillDedupSameSession(t *testing.T) {
	d := NewTankRefillDetector(tankTestConfig())

	// The same completed session read three times counts once
	d.Record(1.00, 45, tk0)
	d.Record(1.00, 45, tk0.Add(time.Minute))
	st := d.Record(1.00, 45, tk0.Add(2*time.Minute))
	assert.False(t, st.IsOn)
	assert.Equal(t, 1, st.WindowEvents)
}

func TestTankRefillWindowPurge(t *testing.T) {
	d := NewTankRefillDetector(tankTestConfig())
	d.Record(1.00, 45, tk0)
	d.Record(1.02, 45, tk0.Add(5*time.Minute))

	// Third similar refill lands after the first fell out of the window
	st := d.Record(0.99, 45, tk0.Add(16*time.Minute))
	assert.False(t, st.IsOn)
	assert.Equal(t, 2, st.SimilarCount)
}

func TestTankRefillGates(t *testing.T) {
	cfg := tankTestConfig()
	cfg.MinDurationS = 20
	cfg.MaxDurationS = 120
	cfg.MaxVolume = 5.0
	d := NewTankRefillDetector(cfg)

	d.Record(0.1, 45, tk0)                    // below min volume
	d.Record(9.0, 45, tk0.Add(time.Minute))   // above max volume
	d.Record(1.0, 10, tk0.Add(2*time.Minute)) // too short
	st := d.Record(1.0, 600, tk0.Add(3*time.Minute)) // too long

	assert.Equal(t, 0, st.WindowEvents)
}

func TestTankRefillIdleClearAndCooldown(t *testing.T) {
	cfg := tankTestConfig()
	cfg.ClearIdleS = 600
	cfg.CooldownS = 1200
	d := NewTankRefillDetector(cfg)

	d.Record(1.00, 45, tk0)
	d.Record(1.01, 45, tk0.Add(3*time.Minute))
	st := d.Record(1.02, 45, tk0.Add(6*time.Minute))
	require.True(t, st.IsOn)

	// Quiet for the clear window: detector stands down with cooldown set
	st = d.Evaluate(tk0.Add(6*time.Minute + 601*time.Second))
	assert.False(t, st.IsOn)
	require.NotNil(t, st.CooldownUntil)

	// A new similar burst inside cooldown stays suppressed
	base := tk0.Add(20 * time.Minute)
	d.Record(1.00, 45, base)
	d.Record(1.01, 45, base.Add(time.Minute))
	st = d.Record(1.02, 45, base.Add(2*time.Minute))
	assert.False(t, st.IsOn)
}
