package models

// Event types returned from engine calls. The host fans these out to
// its own subscribers; the core has no internal bus.
const (
	EventIngest  = "ingest"  // a new completed session was recorded
	EventDaily   = "daily"   // a new daily summary was computed
	EventTracker = "tracker" // live tracker snapshot, every update
)

// Event is a single output notification from the engine
type Event struct {
	Type string `json:"type"`

	// Exactly one of the payloads is set, matching Type
	Record   *SessionRecord `json:"record,omitempty"`
	Summary  *DailySummary  `json:"summary,omitempty"`
	Snapshot *Snapshot      `json:"snapshot,omitempty"`
}
