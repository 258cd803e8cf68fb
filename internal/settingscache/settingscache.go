// Package settingscache is the device-local durable copy of the trainee's
// settings document, stored in the shared database so both the monitor and
// the app process read the same view.
package settingscache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/focuspact/focuspact/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the cached settings for uid. A missing row or a corrupt
// document falls back to a default empty settings object rather than failing
// the caller; the next save overwrites whatever was wrong.
func (s *Store) Get(uid string) (*models.UserSettings, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM settings_cache WHERE uid = ?`, uid).Scan(&doc)
	if err == sql.ErrNoRows {
		return models.DefaultSettings(uid), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings cache: %w", err)
	}

	var settings models.UserSettings
	if err := json.Unmarshal([]byte(doc), &settings); err != nil {
		return models.DefaultSettings(uid), nil
	}
	return &settings, nil
}

// Put overwrites the cached settings document.
func (s *Store) Put(settings *models.UserSettings) error {
	encoded, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO settings_cache (uid, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`, settings.ID, string(encoded), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write settings cache: %w", err)
	}
	return nil
}

// Source adapts the cache to the monitor's read-only settings view for one uid.
type Source struct {
	store *Store
	uid   string
}

func NewSource(store *Store, uid string) *Source {
	return &Source{store: store, uid: uid}
}

func (s *Source) Current() (*models.UserSettings, error) {
	return s.store.Get(s.uid)
}
