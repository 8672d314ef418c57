package detect

import (
	"github.com/markaggar/water-monitor-go/internal/baseline"
	"github.com/markaggar/water-monitor-go/internal/occupancy"
)

// Risk estimator constants
const (
	// Fallback floors when the baseline bucket is not ready
	fallbackFloorMinS = 5 * 60
	fallbackBaseMin   = 45.0 // minutes at sensitivity 0
	fallbackSpanMin   = 25.0 // minutes removed at sensitivity 100

	// Context floors and adjustments
	vacationFloorS = 45 * 60
	awayFloorS     = 35 * 60
	nightFactor    = 0.85
	nightFloorS    = 10 * 60

	// Drip heuristic: persistent barely-nonzero flow
	DripMaxFlow     = 0.3
	DripMinElapsedS = 10 * 60
	dripRiskBoost   = 0.3
)

// RiskInput is everything the estimator needs for one evaluation
type RiskInput struct {
	ElapsedS       int     // continuous active-or-flowing seconds so far
	FlowRate       float64 // instantaneous flow
	LowFlowS       int     // seconds flow has stayed in (0, DripMaxFlow]
	Sensitivity    float64 // 0..100
	OccupancyClass string
	Baseline       baseline.QueryResult
}

// RiskResult is the estimator output
type RiskResult struct {
	Risk             float64 `json:"risk"`
	Leak             bool    `json:"leak"`
	ThresholdS       float64 `json:"effective_threshold_s"`
	TargetPercentile float64 `json:"target_percentile"`
	BaselineLevel    string  `json:"baseline_level"`
	BaselineReady    bool    `json:"baseline_ready"`
	DripBoostApplied bool    `json:"drip_boost_applied"`
}

// EstimateRisk scores how anomalous the current running session is
// against the learned duration baseline. A pure function with no
// clocks and no state.
func EstimateRisk(in RiskInput) RiskResult {
	sensitivity := in.Sensitivity
	if sensitivity < 0 {
		sensitivity = 0
	}
	if sensitivity > 100 {
		sensitivity = 100
	}

	// Sensitivity 0 watches the p99 tail, 100 reacts at p90
	targetP := 99 - 0.09*sensitivity

	ready := in.Baseline.Ready() &&
		(in.Baseline.P90 > 0 || in.Baseline.P95 > 0 || in.Baseline.P99 > 0)

	var thresholdS float64
	if ready {
		thresholdS = interpolateThreshold(in.Baseline, targetP)
	} else {
		minutes := fallbackBaseMin - fallbackSpanMin*sensitivity/100
		thresholdS = minutes * 60
		if thresholdS < fallbackFloorMinS {
			thresholdS = fallbackFloorMinS
		}
	}

	switch in.OccupancyClass {
	case occupancy.ClassVacation:
		if thresholdS < vacationFloorS {
			thresholdS = vacationFloorS
		}
	case occupancy.ClassAway:
		if thresholdS < awayFloorS {
			thresholdS = awayFloorS
		}
	case occupancy.ClassNight:
		thresholdS *= nightFactor
		if thresholdS < nightFloorS {
			thresholdS = nightFloorS
		}
	}

	risk := 0.0
	if thresholdS > 0 {
		risk = float64(in.ElapsedS) / thresholdS
	}

	drip := in.FlowRate > 0 && in.FlowRate <= DripMaxFlow && in.LowFlowS >= DripMinElapsedS
	if drip {
		risk += dripRiskBoost
	}

	return RiskResult{
		Risk:             risk,
		Leak:             risk >= 1.0,
		ThresholdS:       thresholdS,
		TargetPercentile: targetP,
		BaselineLevel:    in.Baseline.Level,
		BaselineReady:    ready,
		DripBoostApplied: drip,
	}
}

// interpolateThreshold maps the target percentile onto the bracketing
// baseline percentiles, piecewise-linear over [90,95] and [95,99]
func interpolateThreshold(b baseline.QueryResult, targetP float64) float64 {
	switch {
	case targetP >= 99:
		return b.P99
	case targetP >= 95:
		frac := (targetP - 95) / 4
		return b.P95 + frac*(b.P99-b.P95)
	case targetP >= 90:
		frac := (targetP - 90) / 5
		return b.P90 + frac*(b.P95-b.P90)
	}
	return b.P90
}
