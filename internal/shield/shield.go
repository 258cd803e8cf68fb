// Package shield persists the currently blocked app set in the shared local
// database. Applying and clearing are "set the blocked set" operations, safe
// to repeat from any state, which lets the monitor call them on every interval
// boundary without tracking whether a shield is already up.
package shield

import (
	"database/sql"
	"fmt"
)

type Controller struct {
	db *sql.DB
}

func New(db *sql.DB) *Controller {
	return &Controller{db: db}
}

// Apply replaces the blocked set with apps. An empty slice clears the shield.
func (c *Controller) Apply(apps []string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM shield`); err != nil {
		return fmt.Errorf("reset shield: %w", err)
	}
	for _, app := range apps {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO shield (app) VALUES (?)`, app); err != nil {
			return fmt.Errorf("shield %s: %w", app, err)
		}
	}
	return tx.Commit()
}

// Clear removes the shield entirely.
func (c *Controller) Clear() error {
	return c.Apply(nil)
}

// Active reports whether any app is currently shielded.
func (c *Controller) Active() (bool, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM shield`).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Blocked returns the currently blocked app set.
func (c *Controller) Blocked() ([]string, error) {
	rows, err := c.db.Query(`SELECT app FROM shield ORDER BY app`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []string
	for rows.Next() {
		var app string
		if err := rows.Scan(&app); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
