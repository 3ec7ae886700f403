package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lobbynotify/internal/models"
)

type TeamRepository struct {
	db *DB
}

func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(name, displayName string) (*models.Team, error) {
	id, err := generateID("team")
	if err != nil {
		return nil, fmt.Errorf("generating team ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO teams (id, name, display_name, created_at) VALUES (?, ?, ?, ?)`,
		id, name, displayName, now,
	)
	if err != nil {
		return nil, wrapWriteError("creating team", err)
	}

	return &models.Team{ID: id, Name: name, DisplayName: displayName, CreatedAt: now}, nil
}

func (r *TeamRepository) FindByID(id string) (*models.Team, error) {
	var t models.Team
	err := r.db.QueryRow(
		`SELECT id, name, display_name, created_at FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.DisplayName, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}
	return &t, nil
}

// TeamName returns the URL name of a team, or "" when it does not exist.
func (r *TeamRepository) TeamName(id string) string {
	t, err := r.FindByID(id)
	if err != nil {
		return ""
	}
	return t.Name
}

func (r *TeamRepository) List() ([]*models.Team, error) {
	rows, err := r.db.Query(`SELECT id, name, display_name, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}
