package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lobbynotify/internal/constants"
	"lobbynotify/internal/models"
)

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

type CreatePostParams struct {
	ChannelID string
	UserID    string
	RootID    string
	Type      string
	Message   string
	Props     models.PostProps
}

func (r *PostRepository) Create(p CreatePostParams) (*models.Post, error) {
	id, err := generateID("post")
	if err != nil {
		return nil, fmt.Errorf("generating post ID: %w", err)
	}
	props, err := json.Marshal(p.Props)
	if err != nil {
		return nil, fmt.Errorf("encoding post props: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO posts (id, channel_id, user_id, root_id, type, message, props, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.ChannelID, p.UserID, p.RootID, p.Type, p.Message, string(props), now,
	)
	if err != nil {
		return nil, wrapWriteError("creating post", err)
	}

	return &models.Post{
		ID:        id,
		ChannelID: p.ChannelID,
		UserID:    p.UserID,
		RootID:    p.RootID,
		Type:      p.Type,
		Message:   p.Message,
		Props:     p.Props,
		CreatedAt: now,
	}, nil
}

const postColumns = `id, channel_id, user_id, root_id, type, message, props, created_at, edited_at`

func scanPost(s rowScanner) (*models.Post, error) {
	var p models.Post
	var props string
	var editedAt sql.NullTime

	if err := s.Scan(&p.ID, &p.ChannelID, &p.UserID, &p.RootID, &p.Type, &p.Message, &props, &p.CreatedAt, &editedAt); err != nil {
		return nil, err
	}
	if props != "" {
		if err := json.Unmarshal([]byte(props), &p.Props); err != nil {
			return nil, fmt.Errorf("decoding post props: %w", err)
		}
	}
	p.EditedAt = nullTimeToPtr(editedAt)
	return &p, nil
}

func (r *PostRepository) FindByID(id string) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying post: %w", err)
	}
	return p, nil
}

// GetHistory returns posts of a channel newest first, optionally before beforeID.
func (r *PostRepository) GetHistory(channelID, beforeID string, limit int) ([]*models.Post, error) {
	if limit <= 0 || limit > constants.MessageHistoryMaxLimit {
		limit = 50
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE channel_id = ?`
	args := []any{channelID}

	if beforeID != "" {
		query += ` AND rowid < (SELECT rowid FROM posts WHERE id = ?)`
		args = append(args, beforeID)
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}

	return posts, nil
}
