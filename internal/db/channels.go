package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lobbynotify/internal/models"
)

type ChannelRepository struct {
	db *DB
}

func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) Create(teamID, name, displayName, channelType string) (*models.Channel, error) {
	id, err := generateID("ch")
	if err != nil {
		return nil, fmt.Errorf("generating channel ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO channels (id, team_id, name, display_name, type, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, teamID, name, displayName, channelType, now,
	)
	if err != nil {
		return nil, wrapWriteError("creating channel", err)
	}

	return &models.Channel{
		ID:          id,
		TeamID:      teamID,
		Name:        name,
		DisplayName: displayName,
		Type:        channelType,
		CreatedAt:   now,
	}, nil
}

func (r *ChannelRepository) FindByID(id string) (*models.Channel, error) {
	var c models.Channel
	err := r.db.QueryRow(
		`SELECT id, team_id, name, display_name, type, created_at FROM channels WHERE id = ?`, id,
	).Scan(&c.ID, &c.TeamID, &c.Name, &c.DisplayName, &c.Type, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel: %w", err)
	}
	return &c, nil
}

func (r *ChannelRepository) ListByTeam(teamID string) ([]*models.Channel, error) {
	rows, err := r.db.Query(
		`SELECT id, team_id, name, display_name, type, created_at FROM channels WHERE team_id = ? ORDER BY name`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying channels: %w", err)
	}
	defer rows.Close()

	channels := make([]*models.Channel, 0)
	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.DisplayName, &c.Type, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning channel: %w", err)
		}
		channels = append(channels, &c)
	}
	return channels, rows.Err()
}

func (r *ChannelRepository) AddMember(channelID, userID string) (*models.ChannelMember, error) {
	now := time.Now().UTC()
	_, err := r.db.Exec(
		`INSERT INTO channel_members (channel_id, user_id, notify_mark_unread, created_at) VALUES (?, ?, ?, ?)`,
		channelID, userID, models.MarkUnreadAll, now,
	)
	if err != nil {
		return nil, wrapWriteError("adding channel member", err)
	}

	return &models.ChannelMember{
		ChannelID:   channelID,
		UserID:      userID,
		NotifyProps: models.ChannelNotifyProps{MarkUnread: models.MarkUnreadAll},
		CreatedAt:   now,
	}, nil
}

const memberColumns = `channel_id, user_id, notify_desktop, notify_desktop_notification_sound, notify_mark_unread, created_at`

func scanMember(s rowScanner) (*models.ChannelMember, error) {
	var m models.ChannelMember
	err := s.Scan(
		&m.ChannelID,
		&m.UserID,
		&m.NotifyProps.Desktop,
		&m.NotifyProps.DesktopNotificationSound,
		&m.NotifyProps.MarkUnread,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ChannelRepository) FindMember(channelID, userID string) (*models.ChannelMember, error) {
	m, err := scanMember(r.db.QueryRow(
		`SELECT `+memberColumns+` FROM channel_members WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel member: %w", err)
	}
	return m, nil
}

func (r *ChannelRepository) ListMembers(channelID string) ([]*models.ChannelMember, error) {
	rows, err := r.db.Query(`SELECT `+memberColumns+` FROM channel_members WHERE channel_id = ?`, channelID)
	if err != nil {
		return nil, fmt.Errorf("querying channel members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.ChannelMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning channel member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *ChannelRepository) UpdateMemberNotifyProps(channelID, userID string, props models.ChannelNotifyProps) error {
	result, err := r.db.Exec(
		`UPDATE channel_members SET notify_desktop = ?, notify_desktop_notification_sound = ?, notify_mark_unread = ?
		WHERE channel_id = ? AND user_id = ?`,
		props.Desktop, props.DesktopNotificationSound, props.MarkUnread, channelID, userID,
	)
	if err != nil {
		return fmt.Errorf("updating channel member notify props: %w", err)
	}
	return checkRowsAffected(result)
}
