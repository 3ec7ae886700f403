package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lobbynotify/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, nickname, locale,
	notify_desktop, notify_desktop_sound, notify_desktop_notification_sound, created_at, updated_at`

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

type CreateUserParams struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Nickname  string
	Locale    string
}

func (r *UserRepository) Create(p CreateUserParams) (*models.User, error) {
	id, err := generateID("usr")
	if err != nil {
		return nil, fmt.Errorf("generating user ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO users (id, username, email, first_name, last_name, nickname, locale, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Username, p.Email, p.FirstName, p.LastName, p.Nickname, p.Locale, now, now,
	)
	if err != nil {
		return nil, wrapWriteError("creating user", err)
	}

	return &models.User{
		ID:        id,
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Nickname:  p.Nickname,
		Locale:    p.Locale,
		NotifyProps: models.UserNotifyProps{
			Desktop:      models.NotifyLevelAll,
			DesktopSound: true,
		},
		CreatedAt: now,
		UpdatedAt: &now,
	}, nil
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	return r.findOne(context.Background(), `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	return r.findOne(context.Background(), `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) FindAll() ([]*models.User, error) {
	return r.findMany(context.Background(), `SELECT `+userColumns+` FROM users ORDER BY username`)
}

// GetProfilesByIDs returns the users that exist among ids. Missing IDs are skipped.
func (r *UserRepository) GetProfilesByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`, args...)
}

// FindIDsByUsernames resolves usernames to user IDs, skipping unknown names.
func (r *UserRepository) FindIDsByUsernames(usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	args := make([]any, len(usernames))
	for i, name := range usernames {
		args[i] = name
	}

	rows, err := r.db.Query(`SELECT id FROM users WHERE username IN (`+placeholders(len(usernames))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users by username: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type UpdateProfileParams struct {
	FirstName *string
	LastName  *string
	Nickname  *string
	Locale    *string
}

func (r *UserRepository) UpdateProfile(id string, p UpdateProfileParams) error {
	result, err := r.db.Exec(
		`UPDATE users SET
			first_name = COALESCE(?, first_name),
			last_name = COALESCE(?, last_name),
			nickname = COALESCE(?, nickname),
			locale = COALESCE(?, locale),
			updated_at = ?
		WHERE id = ?`,
		p.FirstName, p.LastName, p.Nickname, p.Locale, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) UpdateNotifyProps(id string, props models.UserNotifyProps) error {
	result, err := r.db.Exec(
		`UPDATE users SET notify_desktop = ?, notify_desktop_sound = ?, notify_desktop_notification_sound = ?, updated_at = ?
		WHERE id = ?`,
		props.Desktop, props.DesktopSound, props.DesktopNotificationSound, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating notify props: %w", err)
	}
	return checkRowsAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	var u models.User
	var updatedAt sql.NullTime

	err := s.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Nickname,
		&u.Locale,
		&u.NotifyProps.Desktop,
		&u.NotifyProps.DesktopSound,
		&u.NotifyProps.DesktopNotificationSound,
		&u.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt = nullTimeToPtr(updatedAt)
	return &u, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) findMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
