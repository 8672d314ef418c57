package repository

import (
	"database/sql"
	"fmt"

	"github.com/markaggar/water-monitor-go/internal/models"
)

// SessionRepository handles database operations for completed sessions
// and daily summaries
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSession stores one completed session
func (r *SessionRepository) InsertSession(rec models.SessionRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (ended_at, volume, duration_s, avg_flow, hot_pct, gaps, occupancy_class, people_bin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.EndedAt, rec.Volume, rec.DurationS, rec.AvgFlow, rec.HotPct, rec.Gaps, rec.OccupancyClass, rec.PeopleBin)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first
func (r *SessionRepository) ListSessions(limit int) ([]models.SessionRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := r.db.Query(`
		SELECT id, ended_at, volume, duration_s, avg_flow, hot_pct, gaps, occupancy_class, people_bin
		FROM sessions
		ORDER BY ended_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SessionRecord
	for rows.Next() {
		var rec models.SessionRecord
		var occClass, peopleBin sql.NullString

		if err := rows.Scan(&rec.ID, &rec.EndedAt, &rec.Volume, &rec.DurationS, &rec.AvgFlow, &rec.HotPct, &rec.Gaps, &occClass, &peopleBin); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if occClass.Valid {
			rec.OccupancyClass = occClass.String
		}
		if peopleBin.Valid {
			rec.PeopleBin = peopleBin.String
		}
		sessions = append(sessions, rec)
	}

	return sessions, rows.Err()
}

// UpsertDailySummary stores or replaces one day's summary
func (r *SessionRepository) UpsertDailySummary(s models.DailySummary) error {
	var threshold interface{}
	if s.Threshold3Sigma != nil {
		threshold = *s.Threshold3Sigma
	}

	_, err := r.db.Exec(`
		INSERT INTO daily_summaries (date, total_volume, sessions, avg_duration_s, avg_hot_pct, baseline_mean, baseline_std, threshold_3sigma, anomaly)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_volume = excluded.total_volume,
			sessions = excluded.sessions,
			avg_duration_s = excluded.avg_duration_s,
			avg_hot_pct = excluded.avg_hot_pct,
			baseline_mean = excluded.baseline_mean,
			baseline_std = excluded.baseline_std,
			threshold_3sigma = excluded.threshold_3sigma,
			anomaly = excluded.anomaly
	`, s.Date, s.TotalVolume, s.Sessions, s.AvgDuration, s.AvgHotPct, s.BaselineMean, s.BaselineStd, threshold, boolToInt(s.Anomaly))
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

// ListDailySummaries returns recent daily summaries, newest first
func (r *SessionRepository) ListDailySummaries(limit int) ([]models.DailySummary, error) {
	if limit <= 0 || limit > 370 {
		limit = 30
	}

	rows, err := r.db.Query(`
		SELECT date, total_volume, sessions, avg_duration_s, avg_hot_pct, baseline_mean, baseline_std, threshold_3sigma, anomaly
		FROM daily_summaries
		ORDER BY date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.DailySummary
	for rows.Next() {
		var s models.DailySummary
		var threshold sql.NullFloat64
		var anomaly int

		if err := rows.Scan(&s.Date, &s.TotalVolume, &s.Sessions, &s.AvgDuration, &s.AvgHotPct, &s.BaselineMean, &s.BaselineStd, &threshold, &anomaly); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}

		if threshold.Valid {
			v := threshold.Float64
			s.Threshold3Sigma = &v
		}
		s.Anomaly = anomaly != 0
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
