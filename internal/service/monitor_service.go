package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/markaggar/water-monitor-go/internal/baseline"
	"github.com/markaggar/water-monitor-go/internal/detect"
	"github.com/markaggar/water-monitor-go/internal/engine"
	"github.com/markaggar/water-monitor-go/internal/models"
	"github.com/markaggar/water-monitor-go/internal/repository"
)

// MonitorService drives the engine and persists its state. The engine
// itself is single-threaded by contract, so every call into it is
// serialized here.
type MonitorService struct {
	mu sync.Mutex

	engine      *engine.Engine
	stateRepo   *repository.StateRepository
	sessionRepo *repository.SessionRepository
}

// NewMonitorService creates a new monitor service
func NewMonitorService(eng *engine.Engine, stateRepo *repository.StateRepository, sessionRepo *repository.SessionRepository) *MonitorService {
	return &MonitorService{
		engine:      eng,
		stateRepo:   stateRepo,
		sessionRepo: sessionRepo,
	}
}

// Start loads persisted state into the engine. A missing document
// initializes empty state.
func (s *MonitorService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.stateRepo.Load()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if err := s.engine.RestoreState(data); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}

	log.Printf("[MonitorService] Started with %d sessions, %d daily summaries",
		len(s.engine.Sessions()), len(s.engine.DailySummaries()))
	return nil
}

// IngestSample feeds one sample through the engine and persists the
// state after the mutating batch. Persistence failures are logged but
// never block the next update.
func (s *MonitorService) IngestSample(sample models.Sample, occ models.OccupancyInput) ([]models.Event, models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, snap := s.engine.Ingest(sample, occ)
	s.afterMutation(events)
	return events, snap
}

// Tick advances time-only state at the host's tick cadence
func (s *MonitorService) Tick(now time.Time) ([]models.Event, models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, snap := s.engine.Tick(now)
	s.afterMutation(events)
	return events, snap
}

// RunDaily computes the previous day's summary
func (s *MonitorService) RunDaily(now time.Time) (*models.DailySummary, []models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, events := s.engine.RunDailyAnalysis(now)
	if err := s.sessionRepo.UpsertDailySummary(*summary); err != nil {
		log.Printf("[MonitorService] Daily summary persist failed: %v", err)
	}
	s.saveState()
	return summary, events
}

// afterMutation mirrors new session records into their query table and
// saves the state document when the batch changed anything
func (s *MonitorService) afterMutation(events []models.Event) {
	for _, ev := range events {
		if ev.Type == models.EventIngest && ev.Record != nil {
			if err := s.sessionRepo.InsertSession(*ev.Record); err != nil {
				log.Printf("[MonitorService] Session persist failed: %v", err)
			}
		}
	}

	if s.engine.Dirty() {
		s.saveState()
	}
}

func (s *MonitorService) saveState() {
	data, err := s.engine.MarshalState()
	if err != nil {
		log.Printf("[MonitorService] State marshal failed: %v", err)
		return
	}
	if err := s.stateRepo.Save(data); err != nil {
		log.Printf("[MonitorService] State save failed: %v", err)
		return
	}
	s.engine.ClearDirty()
}

// Snapshot returns the last tracker snapshot
func (s *MonitorService) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// LeakStatus bundles every detector's current view
type LeakStatus struct {
	LowFlow    detect.LowFlowStatus    `json:"low_flow"`
	TankRefill detect.TankRefillStatus `json:"tank_refill"`
	Risk       detect.RiskResult       `json:"intelligent"`

	UpstreamSampleAgeS *int `json:"upstream_sample_age_s,omitempty"`
}

// Leaks evaluates all detectors at the given instant
func (s *MonitorService) Leaks(now time.Time) LeakStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := LeakStatus{
		LowFlow:    s.engine.LowFlowStatus(now),
		TankRefill: s.engine.TankRefillStatus(now),
		Risk:       s.engine.Risk(now),
	}
	if age, ok := s.engine.LastSampleAge(now); ok {
		secs := int(age.Seconds())
		status.UpstreamSampleAgeS = &secs
	}
	return status
}

// Sessions lists recent completed sessions from storage
func (s *MonitorService) Sessions(limit int) ([]models.SessionRecord, error) {
	return s.sessionRepo.ListSessions(limit)
}

// DailySummaries lists recent daily summaries from storage
func (s *MonitorService) DailySummaries(limit int) ([]models.DailySummary, error) {
	return s.sessionRepo.ListDailySummaries(limit)
}

// Baseline exposes the fallback-ladder percentile lookup
func (s *MonitorService) Baseline(hour int, dayType, occClass, peopleBin string) baseline.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.BaselineQuery(hour, dayType, occClass, peopleBin)
}
