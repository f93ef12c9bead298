package store

import (
	"database/sql"
	"errors"
	"time"
)

// Result is the outcome of a completed code entry.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFail    Result = "fail"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// Attempt is one completed code entry.
type Attempt struct {
	ID          string    `json:"id"`
	Result      Result    `json:"result"`
	CommandName string    `json:"command_name,omitempty"`
	ActionID    string    `json:"action_id,omitempty"`
	Code        string    `json:"code"`
	MaxDigit    int       `json:"max_digit"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stats summarises the attempt history.
type Stats struct {
	Total     int        `json:"total"`
	Successes int        `json:"successes"`
	Failures  int        `json:"failures"`
	LastAt    *time.Time `json:"last_at,omitempty"`
}

// AttemptRepository provides access to the attempts table.
type AttemptRepository struct {
	db *sql.DB
}

// Attempts returns the attempt repository for this store.
func (s *Store) Attempts() *AttemptRepository {
	return &AttemptRepository{db: s.db}
}

// Create inserts an attempt. CreatedAt is stored in UTC.
func (r *AttemptRepository) Create(a *Attempt) error {
	a.CreatedAt = a.CreatedAt.UTC()
	_, err := r.db.Exec(
		`INSERT INTO attempts (id, result, command_name, action_id, code, max_digit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Result), a.CommandName, a.ActionID, a.Code, a.MaxDigit, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an attempt by its ID.
func (r *AttemptRepository) GetByID(id string) (*Attempt, error) {
	a := &Attempt{}
	var result string

	err := r.db.QueryRow(
		`SELECT id, result, command_name, action_id, code, max_digit, created_at
		 FROM attempts WHERE id = ?`,
		id,
	).Scan(&a.ID, &result, &a.CommandName, &a.ActionID, &a.Code, &a.MaxDigit, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	a.Result = Result(result)
	return a, nil
}

// List returns the most recent attempts, newest first.
func (r *AttemptRepository) List(limit int) ([]*Attempt, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT id, result, command_name, action_id, code, max_digit, created_at
		 FROM attempts ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []*Attempt{}
	for rows.Next() {
		a := &Attempt{}
		var result string
		if err := rows.Scan(&a.ID, &result, &a.CommandName, &a.ActionID, &a.Code, &a.MaxDigit, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Result = Result(result)
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// Stats counts attempts by result.
func (r *AttemptRepository) Stats() (*Stats, error) {
	var (
		st   Stats
		last sql.NullTime
	)
	// MAX over DATETIME returns text in sqlite, so order and take one row instead.
	err := r.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN result = 'success' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN result = 'fail' THEN 1 ELSE 0 END), 0)
		 FROM attempts`,
	).Scan(&st.Total, &st.Successes, &st.Failures)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(`SELECT created_at FROM attempts ORDER BY created_at DESC LIMIT 1`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if last.Valid {
		t := last.Time
		st.LastAt = &t
	}
	return &st, nil
}

// Prune deletes attempts older than before and returns how many were removed.
func (r *AttemptRepository) Prune(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM attempts WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
