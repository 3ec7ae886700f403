package models

import "time"

// Channel types.
const (
	ChannelTypeOpen    = "O"
	ChannelTypePrivate = "P"
	ChannelTypeDirect  = "D"
	ChannelTypeGroup   = "G"
)

// MarkUnreadMention on a membership means the channel is muted.
const (
	MarkUnreadAll     = "all"
	MarkUnreadMention = "mention"
)

type Channel struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamId"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ChannelMember struct {
	ChannelID   string             `json:"channelId"`
	UserID      string             `json:"userId"`
	NotifyProps ChannelNotifyProps `json:"notifyProps"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// ChannelNotifyProps holds per-channel overrides. Empty fields mean "not set".
type ChannelNotifyProps struct {
	Desktop                  string `json:"desktop,omitempty"`
	DesktopNotificationSound string `json:"desktopNotificationSound,omitempty"`
	MarkUnread               string `json:"markUnread,omitempty"`
}

func (m *ChannelMember) IsMuted() bool {
	return m.NotifyProps.MarkUnread == MarkUnreadMention
}
