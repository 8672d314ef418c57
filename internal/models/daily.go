package models

// DailySummary represents one local day's aggregated usage and its
// 3-sigma anomaly evaluation against the trailing 7-day baseline.
type DailySummary struct {
	Date string `json:"date" db:"date"` // local day key YYYY-MM-DD

	// Day totals
	TotalVolume float64 `json:"total_volume" db:"total_volume"`
	Sessions    int     `json:"sessions" db:"sessions"`
	AvgDuration float64 `json:"avg_duration_s" db:"avg_duration_s"`
	AvgHotPct   float64 `json:"avg_hot_pct" db:"avg_hot_pct"`

	// Trailing baseline (7 preceding computed days)
	BaselineMean float64 `json:"baseline_mean" db:"baseline_mean"`
	BaselineStd  float64 `json:"baseline_std" db:"baseline_std"`

	// mean + 3*std; nil when the baseline std is zero
	Threshold3Sigma *float64 `json:"threshold_3sigma" db:"threshold_3sigma"`
	Anomaly         bool     `json:"anomaly" db:"anomaly"`
}
