package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"golang.org/x/xerrors"
)

// Sample represents a recorded gesture sample stored in the database. Data holds a
// JSON encoded gesture.Sample.
type Sample struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository provides CRUD operations for gesture samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create replaces the samples of a gesture and its sample count in one transaction.
func (r *SampleRepository) Create(gestureID string, samples []json.RawMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_samples WHERE gesture_id = ?`, gestureID); err != nil {
		return xerrors.Errorf("clear samples of %s: %w", gestureID, err)
	}

	result, err := tx.Exec(`UPDATE gestures SET samples = ?, updated_at = ? WHERE id = ?`,
		len(samples), time.Now(), gestureID)
	if err != nil {
		return xerrors.Errorf("count samples of %s: %w", gestureID, err)
	}
	if err := expectRow(result); err != nil {
		return err
	}

	for i, data := range samples {
		if _, err := tx.Exec(
			`INSERT INTO gesture_samples (gesture_id, sample_index, data) VALUES (?, ?, ?)`,
			gestureID, i, string(data),
		); err != nil {
			return xerrors.Errorf("insert sample %d of %s: %w", i, gestureID, err)
		}
	}

	return tx.Commit()
}

// GetByGestureID returns the samples of a gesture in recording order.
func (r *SampleRepository) GetByGestureID(gestureID string) ([]Sample, error) {
	rows, err := r.db.Query(`SELECT id, gesture_id, sample_index, data, created_at
		FROM gesture_samples WHERE gesture_id = ? ORDER BY sample_index`, gestureID)
	if err != nil {
		return nil, xerrors.Errorf("query samples of %s: %w", gestureID, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func scanSample(rows *sql.Rows) (Sample, error) {
	var (
		s    Sample
		data string
	)
	err := rows.Scan(&s.ID, &s.GestureID, &s.SampleIndex, &data, &s.CreatedAt)
	s.Data = json.RawMessage(data)
	return s, err
}

// Raw returns the sample payloads of a gesture in recording order.
func (r *SampleRepository) Raw(gestureID string) ([]json.RawMessage, error) {
	samples, err := r.GetByGestureID(gestureID)
	if err != nil {
		return nil, err
	}
	raw := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		raw[i] = s.Data
	}
	return raw, nil
}
