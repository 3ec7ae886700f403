package db

import (
	"database/sql"
	"errors"
	"fmt"

	"lobbynotify/internal/models"
)

type PreferenceRepository struct {
	db *DB
}

func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored value and whether one exists.
func (r *PreferenceRepository) Get(userID, category, name string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(
		`SELECT value FROM preferences WHERE user_id = ? AND category = ? AND name = ?`,
		userID, category, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying preference: %w", err)
	}
	return value, true, nil
}

func (r *PreferenceRepository) ListByUser(userID string) ([]models.Preference, error) {
	rows, err := r.db.Query(
		`SELECT user_id, category, name, value FROM preferences WHERE user_id = ? ORDER BY category, name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying preferences: %w", err)
	}
	defer rows.Close()

	prefs := make([]models.Preference, 0)
	for rows.Next() {
		var p models.Preference
		if err := rows.Scan(&p.UserID, &p.Category, &p.Name, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// Save upserts all preferences in one transaction.
func (r *PreferenceRepository) Save(prefs []models.Preference) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range prefs {
		_, err := tx.Exec(
			`INSERT INTO preferences (user_id, category, name, value) VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, category, name) DO UPDATE SET value = excluded.value`,
			p.UserID, p.Category, p.Name, p.Value,
		)
		if err != nil {
			return fmt.Errorf("saving preference %s/%s: %w", p.Category, p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing preferences: %w", err)
	}
	return nil
}
