package store

import (
	"database/sql"
	"time"
)

// Attempt is one finished practice attempt at a target word.
type Attempt struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Target    string    `json:"target"`
	Label     string    `json:"label"`
	Matched   bool      `json:"matched"`
	Frames    int       `json:"frames"`
	CreatedAt time.Time `json:"created_at"`
}

// Progress summarizes the attempts at one target word.
type Progress struct {
	Target   string `json:"target"`
	Attempts int    `json:"attempts"`
	Matched  int    `json:"matched"`
}

// AttemptRepository records practice attempts.
type AttemptRepository struct {
	db *sql.DB
}

// Attempts returns the attempt repository for this store.
func (s *Store) Attempts() *AttemptRepository {
	return &AttemptRepository{db: s.db}
}

// Create inserts a new attempt.
func (r *AttemptRepository) Create(a *Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO attempts (id, session_id, target, label, matched, frames, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.Target, a.Label, a.Matched, a.Frames, a.CreatedAt,
	)
	return err
}

// List returns attempts, newest first. An empty target lists all of them; limit <= 0
// means no limit.
func (r *AttemptRepository) List(target string, limit int) ([]Attempt, error) {
	query := `SELECT id, session_id, target, label, matched, frames, created_at FROM attempts`
	var args []any
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var matched int
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Target, &a.Label, &matched, &a.Frames, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Matched = matched != 0
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// Progress returns per-target attempt counts, ordered by target.
func (r *AttemptRepository) Progress() ([]Progress, error) {
	rows, err := r.db.Query(
		`SELECT target, COUNT(*), COALESCE(SUM(matched), 0)
		 FROM attempts GROUP BY target ORDER BY target`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []Progress
	for rows.Next() {
		var p Progress
		if err := rows.Scan(&p.Target, &p.Attempts, &p.Matched); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}

	return progress, rows.Err()
}
