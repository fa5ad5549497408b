package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is a saved accuracy report.
type Session struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	DetectorKind  string          `json:"detector_kind"`
	TotalFrames   int             `json:"total_frames"`
	DetectionRate float64         `json:"detection_rate"`
	Report        json.RawMessage `json:"report,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SessionRepository provides access to saved sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a session. An empty ID is filled with a new UUID.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now()

	report := s.Report
	if report == nil {
		report = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, label, detector_kind, total_frames, detection_rate, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Label, s.DetectorKind, s.TotalFrames, s.DetectionRate, string(report), s.CreatedAt,
	)
	return err
}

// GetByID retrieves a session with its report.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s := &Session{}
	var report string

	err := r.db.QueryRow(
		`SELECT id, label, detector_kind, total_frames, detection_rate, report, created_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Label, &s.DetectorKind, &s.TotalFrames, &s.DetectionRate, &report, &s.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.Report = json.RawMessage(report)
	return s, nil
}

// List returns all sessions, newest first, without their reports.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, label, detector_kind, total_frames, detection_rate, created_at
		 FROM sessions ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		if err := rows.Scan(&s.ID, &s.Label, &s.DetectorKind, &s.TotalFrames, &s.DetectionRate, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// Delete removes a session.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
