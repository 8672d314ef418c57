package models

import "time"

// Session represents a completed water usage session
type Session struct {
	// Temporal info
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	DurationS int       `json:"duration_s"`

	// Usage
	Volume           float64 `json:"volume"`
	HotWaterDuration int     `json:"hot_water_duration_s"`
	GappedSessions   int     `json:"gapped_sessions"` // flow resumptions inside the session
	AverageFlow      float64 `json:"average_flow"`    // volume units per minute
}

// HotWaterPct returns the share of the session spent with hot water
// running, rounded to one decimal. Zero-duration sessions report 0.
func (s Session) HotWaterPct() float64 {
	if s.DurationS == 0 {
		return 0
	}
	return Round1(float64(s.HotWaterDuration) / float64(s.DurationS) * 100)
}

// SessionRecord is the persisted form of a completed session as kept in
// the engine's bounded history.
type SessionRecord struct {
	ID int64 `json:"id,omitempty" db:"id"`

	EndedAt   time.Time `json:"ended_at" db:"ended_at"`
	Volume    float64   `json:"volume" db:"volume"`
	DurationS int       `json:"duration_s" db:"duration_s"`
	AvgFlow   float64   `json:"avg_flow" db:"avg_flow"`
	HotPct    float64   `json:"hot_pct" db:"hot_pct"`
	Gaps      int       `json:"gaps" db:"gaps"`

	// Occupancy context captured at ingest time (not recomputable later)
	OccupancyClass string `json:"occupancy_class,omitempty" db:"occupancy_class"`
	PeopleBin      string `json:"people_bin,omitempty" db:"people_bin"`
}

// Tracker phase tags exposed in snapshots
const (
	PhaseActive = "ACTIVE"
	PhaseGap    = "GAP"
	PhaseIdle   = "IDLE"
)

// Snapshot is the live tracker state published on every update
type Snapshot struct {
	// Phase flags
	SessionActive bool   `json:"current_session_active"`
	GapActive     bool   `json:"gap_active"`
	DebugState    string `json:"debug_state"` // ACTIVE | GAP | IDLE

	// Current (open) session metrics
	CurrentStart     *time.Time `json:"current_session_start,omitempty"`
	OriginalStart    *time.Time `json:"original_session_start,omitempty"`
	CurrentVolume    float64    `json:"current_session_volume"`
	CurrentDurationS int        `json:"current_session_duration"`
	CurrentAvgFlow   float64    `json:"current_session_average_flow"`
	CurrentHotPct    float64    `json:"current_session_hot_water_pct"`

	// Intermediate session snapshot taken on gap entry
	IntermediateExists      bool       `json:"intermediate_session_exists"`
	IntermediateStart       *time.Time `json:"intermediate_session_start,omitempty"`
	IntermediateDurationS   int        `json:"intermediate_session_duration"`
	IntermediateVolume      float64    `json:"intermediate_session_volume"`
	IntermediateAvgFlow     float64    `json:"intermediate_session_average_flow"`
	IntermediateHotDuration int        `json:"intermediate_session_hot_water_duration"`
	IntermediateHotPct      float64    `json:"intermediate_session_hot_water_pct"`

	// Last completed session, nil until one passes the minimum gates
	LastSession *Session `json:"last_session,omitempty"`

	// Instantaneous input and host hints
	FlowRate        float64 `json:"flow_sensor_value"`
	TickCadenceSecs int     `json:"tick_cadence_s"` // 0 = no periodic ticks needed
}
