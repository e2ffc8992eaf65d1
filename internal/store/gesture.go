package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/xerrors"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Gesture is a label the template classifier can recognize.
type Gesture struct {
	ID        string
	Name      string
	Tolerance float64
	Samples   int
	// Features is the averaged feature vector, nil until trained.
	Features  []float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Trained reports whether the gesture has a template vector.
func (g *Gesture) Trained() bool {
	return len(g.Features) > 0
}

// GestureRepository provides CRUD operations for gestures.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

const gestureColumns = `id, name, tolerance, samples, features, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGesture(row rowScanner) (*Gesture, error) {
	g := &Gesture{}
	var features string

	if err := row.Scan(&g.ID, &g.Name, &g.Tolerance, &g.Samples, &features, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(features), &g.Features); err != nil {
		return nil, xerrors.Errorf("gesture %s: bad features column: %w", g.ID, err)
	}
	if len(g.Features) == 0 {
		g.Features = nil
	}
	return g, nil
}

func encodeFeatures(f []float64) (string, error) {
	if f == nil {
		f = []float64{}
	}
	b, err := json.Marshal(f)
	return string(b), err
}

// Create inserts a new gesture into the database.
func (r *GestureRepository) Create(g *Gesture) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	features, err := encodeFeatures(g.Features)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO gestures (`+gestureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Tolerance, g.Samples, features, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return xerrors.Errorf("create gesture %q: %w", g.Name, err)
	}

	return nil
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	return r.getOne(`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id)
}

// GetByName retrieves a gesture by its name.
func (r *GestureRepository) GetByName(name string) (*Gesture, error) {
	return r.getOne(`SELECT `+gestureColumns+` FROM gestures WHERE name = ?`, name)
}

func (r *GestureRepository) getOne(query string, arg string) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// List retrieves all gestures from the database, newest first.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(`SELECT ` + gestureColumns + ` FROM gestures ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gestures, nil
}

// Update updates an existing gesture in the database.
func (r *GestureRepository) Update(g *Gesture) error {
	g.UpdatedAt = time.Now()

	features, err := encodeFeatures(g.Features)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE gestures SET name = ?, tolerance = ?, samples = ?, features = ?, updated_at = ?
		 WHERE id = ?`,
		g.Name, g.Tolerance, g.Samples, features, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}

	return expectRow(result)
}

// SetFeatures stores a newly trained template vector.
func (r *GestureRepository) SetFeatures(id string, f []float64) error {
	features, err := encodeFeatures(f)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(`UPDATE gestures SET features = ?, updated_at = ? WHERE id = ?`,
		features, time.Now(), id)
	if err != nil {
		return err
	}

	return expectRow(result)
}

// Delete removes a gesture from the database by its ID.
func (r *GestureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return expectRow(result)
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
