package models

import (
	"strings"
	"time"
)

const (
	PostTypeDefault      = ""
	PostTypeSystemPrefix = "system_"
	PostTypeAddToChannel = "system_add_to_channel"
	PostTypeJoinChannel  = "system_join_channel"
)

type Post struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channelId"`
	UserID    string     `json:"userId"`
	RootID    string     `json:"rootId,omitempty"`
	Type      string     `json:"type,omitempty"`
	Message   string     `json:"message"`
	Props     PostProps  `json:"props"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// PostProps are the structured extras carried with a post.
type PostProps struct {
	FromWebhook      string       `json:"from_webhook,omitempty"`
	OverrideUsername string       `json:"override_username,omitempty"`
	AddedUserID      string       `json:"addedUserId,omitempty"`
	Attachments      []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Fallback string `json:"fallback,omitempty"`
	Pretext  string `json:"pretext,omitempty"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func (p *Post) IsSystemMessage() bool {
	return strings.HasPrefix(p.Type, PostTypeSystemPrefix)
}

// IsUserAddedInChannel reports whether p announces userID being added to the channel.
func (p *Post) IsUserAddedInChannel(userID string) bool {
	return p.Type == PostTypeAddToChannel && p.Props.AddedUserID == userID
}

func (p *Post) FromWebhook() bool {
	return p.Props.FromWebhook == "true"
}
