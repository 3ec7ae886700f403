package models

import (
	"strings"
	"time"
)

// Notify levels as stored on users and channel members.
const (
	NotifyLevelDefault = "default"
	NotifyLevelAll     = "all"
	NotifyLevelMention = "mention"
	NotifyLevelNone    = "none"
)

const (
	DefaultNotificationSound = "Bing"
	NoSound                  = "None"
)

type User struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email,omitempty"`
	FirstName   string          `json:"firstName,omitempty"`
	LastName    string          `json:"lastName,omitempty"`
	Nickname    string          `json:"nickname,omitempty"`
	Locale      string          `json:"locale,omitempty"`
	NotifyProps UserNotifyProps `json:"notifyProps"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// UserNotifyProps holds the account-wide desktop notification defaults.
type UserNotifyProps struct {
	Desktop                  string `json:"desktop"`
	DesktopSound             bool   `json:"desktopSound"`
	DesktopNotificationSound string `json:"desktopNotificationSound,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
