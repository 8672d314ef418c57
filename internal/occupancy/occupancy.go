package occupancy

import (
	"strings"
	"time"
)

// Occupancy classes attached to sessions at ingest time
const (
	ClassHome     = "home"
	ClassAway     = "away"
	ClassVacation = "vacation"
	ClassNight    = "night"
)

// Night window: 22:00 (inclusive) to 06:00 (exclusive), local time
const (
	nightStartHour = 22
	nightEndHour   = 6
)

// Classifier maps a raw occupancy state string plus a person count to
// one of the occupancy classes. The state sets come from configuration
// and are matched case-insensitively.
type Classifier struct {
	awayStates     map[string]struct{}
	vacationStates map[string]struct{}
}

// NewClassifier builds a classifier from the configured state lists
func NewClassifier(awayStates, vacationStates []string) *Classifier {
	return &Classifier{
		awayStates:     stateSet(awayStates),
		vacationStates: stateSet(vacationStates),
	}
}

func stateSet(states []string) map[string]struct{} {
	set := make(map[string]struct{}, len(states))
	for _, s := range states {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// ParseStateList splits a comma-delimited config value into states
func ParseStateList(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Classify derives the occupancy class. Vacation outranks away; night
// applies only when nobody's occupancy mode says otherwise.
func (c *Classifier) Classify(rawState string, personCount int, at time.Time) string {
	state := strings.ToLower(strings.TrimSpace(rawState))

	if _, ok := c.vacationStates[state]; ok {
		return ClassVacation
	}
	if _, ok := c.awayStates[state]; ok {
		return ClassAway
	}
	if personCount == 0 && state != "" {
		return ClassAway
	}

	hour := at.Hour()
	if hour >= nightStartHour || hour < nightEndHour {
		return ClassNight
	}
	return ClassHome
}

// PeopleBin buckets a person count for the fine baseline ladder
func PeopleBin(personCount int) string {
	switch {
	case personCount <= 0:
		return "0"
	case personCount == 1:
		return "1"
	case personCount == 2:
		return "2"
	}
	return "3+"
}
