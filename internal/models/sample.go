package models

import "time"

// Sample represents one reading from the upstream flow/volume sensors
type Sample struct {
	// Sensor values
	FlowRate         float64 `json:"flow_rate"`         // volume units per minute, clamped >= 0
	CumulativeVolume float64 `json:"cumulative_volume"` // meter total, clamped >= 0
	HotWaterActive   bool    `json:"hot_water_active"`

	// When the reading was taken
	Timestamp time.Time `json:"timestamp"`
}

// OccupancyInput carries the host-side occupancy context at ingest time.
// It is injected with each sample because historical occupancy cannot be
// reconstructed from persisted state alone.
type OccupancyInput struct {
	RawState    string `json:"raw_state"`    // e.g. "Home", "Away", "On Vacation"
	PersonCount int    `json:"person_count"` // number of persons marked present
}

// Tick cadence hints the core reports back to the host
const (
	TickCadenceNone = 0 // idle, no periodic updates needed
	TickCadenceGap  = 1 // seconds; gap or continuation timing is running
	TickCadenceFlow = 5 // seconds; active flow, relaxed cadence
)
