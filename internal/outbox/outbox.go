// Package outbox is the single-slot mailbox the sandboxed monitor uses to hand
// state changes to the main process. It is not a queue: a second write before
// the next drain overwrites the first, and correctness only requires that the
// app eventually converges on the current status, not that it replays every
// transition.
package outbox

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/focuspact/focuspact/internal/models"
)

const (
	slotStatus  = "pending_status"
	slotAppList = "pending_app_list"
)

// Store is the mailbox over the shared local database. The monitor writes,
// the app consumes; neither side needs a cross-process mutex beyond SQLite's
// own single-statement atomicity.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SetPendingStatus overwrites the pending status slot. A nil streakResetAt
// clears any reset marker left by an earlier write so a stale one can never
// be consumed alongside a newer status.
func (s *Store) SetPendingStatus(status models.TraineeStatus, streakResetAt *time.Time) error {
	var reset sql.NullInt64
	if streakResetAt != nil {
		reset = sql.NullInt64{Int64: streakResetAt.Unix(), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO outbox (slot, value, streak_reset_at, written_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			value = excluded.value,
			streak_reset_at = excluded.streak_reset_at,
			written_at = excluded.written_at
	`, slotStatus, string(status), reset, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write pending status: %w", err)
	}
	return nil
}

// SetPendingAppList overwrites the pending resolved-app-name slot.
func (s *Store) SetPendingAppList(names []string) error {
	encoded, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode app list: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO outbox (slot, value, streak_reset_at, written_at)
		VALUES (?, ?, NULL, ?)
		ON CONFLICT(slot) DO UPDATE SET
			value = excluded.value,
			streak_reset_at = NULL,
			written_at = excluded.written_at
	`, slotAppList, string(encoded), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write pending app list: %w", err)
	}
	return nil
}

// ConsumePendingStatus atomically reads and clears the pending status slot.
// ok is false when no entry was pending.
func (s *Store) ConsumePendingStatus() (status models.TraineeStatus, streakResetAt *time.Time, ok bool, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", nil, false, err
	}
	defer tx.Rollback()

	var value string
	var reset sql.NullInt64
	err = tx.QueryRow(`SELECT value, streak_reset_at FROM outbox WHERE slot = ?`, slotStatus).
		Scan(&value, &reset)
	if err == sql.ErrNoRows {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("read pending status: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM outbox WHERE slot = ?`, slotStatus); err != nil {
		return "", nil, false, fmt.Errorf("clear pending status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", nil, false, err
	}

	if reset.Valid {
		t := time.Unix(reset.Int64, 0).UTC()
		streakResetAt = &t
	}
	return models.TraineeStatus(value), streakResetAt, true, nil
}

// ConsumePendingAppList atomically reads and clears the pending app-list slot.
func (s *Store) ConsumePendingAppList() ([]string, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRow(`SELECT value FROM outbox WHERE slot = ?`, slotAppList).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read pending app list: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM outbox WHERE slot = ?`, slotAppList); err != nil {
		return nil, false, fmt.Errorf("clear pending app list: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	var names []string
	if err := json.Unmarshal([]byte(value), &names); err != nil {
		return nil, false, fmt.Errorf("decode app list: %w", err)
	}
	return names, true, nil
}
