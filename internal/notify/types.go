package notify

import (
	"encoding/json"

	"lobbynotify/internal/models"
)

// NotifyLevel is a desktop notification verbosity.
type NotifyLevel string

const (
	LevelNone    NotifyLevel = models.NotifyLevelNone
	LevelMention NotifyLevel = models.NotifyLevelMention
	LevelAll     NotifyLevel = models.NotifyLevelAll
	LevelDefault NotifyLevel = models.NotifyLevelDefault
)

// IsTerminal reports whether l is a concrete decision value.
func (l NotifyLevel) IsTerminal() bool {
	switch l {
	case LevelNone, LevelMention, LevelAll:
		return true
	}
	return false
}

// InboundMessage is a received post together with the metadata the
// transport attached to it. It is never modified by this package.
type InboundMessage struct {
	Post  *models.Post
	Props MessageProps
}

// MessageProps is the metadata sent alongside a post event.
type MessageProps struct {
	ChannelDisplayName string   `json:"channel_display_name,omitempty"`
	ChannelName        string   `json:"channel_name,omitempty"`
	ChannelType        string   `json:"channel_type,omitempty"`
	TeamID             string   `json:"team_id,omitempty"`
	RootID             string   `json:"root_id,omitempty"`
	Mentions           []string `json:"mentions,omitempty"`
	Image              bool     `json:"image,omitempty"`
	OtherFile          bool     `json:"otherFile,omitempty"`

	// Post is the serialized post. Attachments used for the notify text
	// are read from it when present.
	Post string `json:"post,omitempty"`
}

func (m *InboundMessage) rootID() string {
	if m.Props.RootID != "" {
		return m.Props.RootID
	}
	return m.Post.RootID
}

func (m *InboundMessage) mentions(userID string) bool {
	for _, id := range m.Props.Mentions {
		if id == userID {
			return true
		}
	}
	return false
}

// textAttachments returns the attachments of the serialized post, falling
// back to the attachments on the post itself.
func (m *InboundMessage) textAttachments() []models.Attachment {
	if m.Props.Post != "" {
		var serialized struct {
			Props models.PostProps `json:"props"`
		}
		if err := json.Unmarshal([]byte(m.Props.Post), &serialized); err == nil {
			return serialized.Props.Attachments
		}
	}
	return m.Post.Props.Attachments
}

// RecipientContext is a read-only snapshot of the viewing user's state.
type RecipientContext struct {
	UserID string
	Status string

	// User is the recipient's own profile; nil when not loaded.
	User *models.User
	// Member is the recipient's membership in the post's channel; nil when absent.
	Member *models.ChannelMember

	Focused      bool
	OpenThreadID string

	TeammateNameDisplay string
	CollapsedThreads    bool
}

func (rc *RecipientContext) locale() string {
	if rc.User == nil {
		return ""
	}
	return rc.User.Locale
}

// isThreadOpen reports whether the thread rooted at rootID is visible.
// A post outside any thread never counts as open.
func (rc *RecipientContext) isThreadOpen(rootID string) bool {
	return rootID != "" && rc.OpenThreadID == rootID
}

// Operating systems reported by desktop and browser clients.
const (
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSLinux   = "linux"
)

const (
	notifyTextMaxLength        = 50
	windowsNotifyTextMaxLength = 120 // Chrome on Windows shows 128, the lowest among Windows browsers
)

// PlatformContext describes where the recipient session runs.
type PlatformContext struct {
	DesktopApp        bool
	DesktopAppVersion string
	MobileApp         bool
	OS                string
}

func (p PlatformContext) IsWindowsApp() bool {
	return p.DesktopApp && p.OS == OSWindows
}

// NotifyTextMaxLength is the character budget for the notify text.
func (p PlatformContext) NotifyTextMaxLength() int {
	if p.IsWindowsApp() {
		return windowsNotifyTextMaxLength
	}
	return notifyTextMaxLength
}

// ComposedNotification is the content of one notification.
type ComposedNotification struct {
	Title     string
	Body      string
	SoundName string
	URL       string
	ChannelID string
	TeamID    string
}
