package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markaggar/water-monitor-go/internal/baseline"
	"github.com/markaggar/water-monitor-go/internal/occupancy"
)

func readyBaseline() baseline.QueryResult {
	return baseline.QueryResult{
		P50:   120,
		P90:   600,
		P95:   900,
		P99:   1800,
		Count: 50,
		Level: baseline.LevelFine,
	}
}

func TestSensitivityPercentileMapping(t *testing.T) {
	r := EstimateRisk(RiskInput{Sensitivity: 0, Baseline: readyBaseline()})
	assert.InDelta(t, 99.0, r.TargetPercentile, 1e-9)
	assert.InDelta(t, 1800, r.ThresholdS, 1e-9)

	r = EstimateRisk(RiskInput{Sensitivity: 100, Baseline: readyBaseline()})
	assert.InDelta(t, 90.0, r.TargetPercentile, 1e-9)
	assert.InDelta(t, 600, r.ThresholdS, 1e-9)

	// Midpoint of the [95,99] segment
	r = EstimateRisk(RiskInput{Sensitivity: 100.0 / 4.5, Baseline: readyBaseline()})
	assert.InDelta(t, 97.0, r.TargetPercentile, 1e-9)
	assert.InDelta(t, 900+0.5*(1800-900), r.ThresholdS, 1e-6)
}

func TestFallbackFloorWhenBaselineUnready(t *testing.T) {
	unready := baseline.QueryResult{Count: 3, Level: baseline.LevelGlobal}

	r := EstimateRisk(RiskInput{Sensitivity: 0, Baseline: unready})
	assert.False(t, r.BaselineReady)
	assert.InDelta(t, 45*60, r.ThresholdS, 1e-9)

	r = EstimateRisk(RiskInput{Sensitivity: 100, Baseline: unready})
	assert.InDelta(t, 20*60, r.ThresholdS, 1e-9)

	// An all-zero baseline is treated as unready even with samples
	zero := baseline.QueryResult{Count: 50, Level: baseline.LevelFine}
	r = EstimateRisk(RiskInput{Sensitivity: 0, Baseline: zero})
	assert.False(t, r.BaselineReady)
}

func TestContextAdjustments(t *testing.T) {
	b := readyBaseline()

	// Vacation floor dominates a short learned threshold
	r := EstimateRisk(RiskInput{Sensitivity: 100, OccupancyClass: occupancy.ClassVacation, Baseline: b})
	assert.InDelta(t, 45*60, r.ThresholdS, 1e-9)

	r = EstimateRisk(RiskInput{Sensitivity: 100, OccupancyClass: occupancy.ClassAway, Baseline: b})
	assert.InDelta(t, 35*60, r.ThresholdS, 1e-9)

	// Night tightens the threshold by 15%
	r = EstimateRisk(RiskInput{Sensitivity: 100, OccupancyClass: occupancy.ClassNight, Baseline: b})
	assert.InDelta(t, 600*0.85, r.ThresholdS, 1e-9)

	// Night floor at 10 minutes
	small := baseline.QueryResult{P90: 60, P95: 90, P99: 120, Count: 50}
	r = EstimateRisk(RiskInput{Sensitivity: 100, OccupancyClass: occupancy.ClassNight, Baseline: small})
	assert.InDelta(t, 10*60, r.ThresholdS, 1e-9)
}

func TestRiskAndLeakFlag(t *testing.T) {
	b := readyBaseline()

	r := EstimateRisk(RiskInput{ElapsedS: 300, Sensitivity: 100, Baseline: b})
	assert.InDelta(t, 0.5, r.Risk, 1e-9)
	assert.False(t, r.Leak)

	r = EstimateRisk(RiskInput{ElapsedS: 600, Sensitivity: 100, Baseline: b})
	assert.True(t, r.Leak)
}

func TestDripHeuristic(t *testing.T) {
	b := readyBaseline()

	// 0.2 flow held for 10 minutes adds the drip boost
	r := EstimateRisk(RiskInput{
		ElapsedS:    450,
		FlowRate:    0.2,
		LowFlowS:    600,
		Sensitivity: 100,
		Baseline:    b,
	})
	assert.True(t, r.DripBoostApplied)
	assert.InDelta(t, 0.75+0.3, r.Risk, 1e-9)
	assert.True(t, r.Leak)

	// Same flow but not yet 10 minutes: no boost
	r = EstimateRisk(RiskInput{ElapsedS: 450, FlowRate: 0.2, LowFlowS: 300, Sensitivity: 100, Baseline: b})
	assert.False(t, r.DripBoostApplied)
}
