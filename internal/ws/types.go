package ws

import (
	"encoding/json"

	"lobbynotify/internal/constants"
	"lobbynotify/internal/models"
	"lobbynotify/internal/notify"
)

// Operation codes for WebSocket messages
type OpCode int

// ProtocolVersion is the exact server/client WS protocol version.
// Bump this only for breaking wire-contract changes.
const ProtocolVersion = 1

const (
	// DISPATCH - Events and commands with type field
	OpDispatch OpCode = 0

	// Lifecycle ops (Server -> Client)
	OpHello          OpCode = 1 // Sent on connection
	OpReady          OpCode = 2 // Sent after successful identify, contains initial state
	OpInvalidSession OpCode = 3 // Session invalid, must re-identify
)

// Event types (Server -> Client via DISPATCH)
const (
	EventPresenceUpdate       = "PRESENCE_UPDATE"
	EventMessageCreate        = "MESSAGE_CREATE"
	EventError                = "ERROR"
	EventDispatchNotification = notify.EventDispatchNotification // desktop app sessions only
	EventNotificationShow     = "NOTIFICATION_SHOW"
	EventNotificationSound    = "NOTIFICATION_SOUND"
	EventWindowFocus          = "WINDOW_FOCUS"
	EventNavigate             = "NAVIGATE"
)

// Command types (Client -> Server via DISPATCH)
const (
	CmdIdentify          = "IDENTIFY"
	CmdPresenceSet       = "PRESENCE_SET"
	CmdWindowFocus       = "WINDOW_FOCUS" // client reports its focus state
	CmdThreadOpen        = "THREAD_OPEN"
	CmdThreadClose       = "THREAD_CLOSE"
	CmdNotificationClick = "NOTIFICATION_CLICK"
)

// Error codes sent in EventError payloads.
const (
	ErrCodeAuthFailed    = constants.ErrCodeAuthFailed
	ErrCodeRateLimited   = constants.ErrCodeRateLimited
	ErrCodeInvalid       = constants.ErrCodeInvalidRequest
	ErrCodeClickNotFound = constants.ErrCodeNotificationNotFound
)

// Browser notification permission states reported on IDENTIFY.
const (
	PermissionGranted     = "granted"
	PermissionDenied      = "denied"
	PermissionDefault     = "default"
	PermissionUnsupported = "unsupported"
)

type WSMessage struct {
	Op   OpCode `json:"op"`
	Type string `json:"t,omitempty"` // Event/command type (only for DISPATCH)
	Data any    `json:"d,omitempty"`
	Seq  *int64 `json:"s,omitempty"`
}

// inboundMessage is a WSMessage as read from a client; Data is decoded
// once the command type is known.
type inboundMessage struct {
	Op   OpCode          `json:"op"`
	Type string          `json:"t,omitempty"`
	Data json.RawMessage `json:"d,omitempty"`
}

// Server -> Client payloads

type HelloPayload struct{}

type ReadyPayload struct {
	ProtocolVersion int                     `json:"protocol_version"`
	SessionID       string                  `json:"session_id"`
	User            *models.User            `json:"user"`
	Presences       []PresenceUpdatePayload `json:"presences"`
}

// InvalidSessionPayload sent when session is invalid
type InvalidSessionPayload struct {
	Resumable bool `json:"resumable"`
}

// MessageCreatePayload carries a new post and the channel metadata that
// clients need to display it without another lookup.
type MessageCreatePayload struct {
	Post  *models.Post        `json:"post"`
	Props notify.MessageProps `json:"props"`
}

type PresenceUpdatePayload struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// DispatchNotificationPayload is the companion bridge message. The desktop
// app posts Envelope into the page whose origin is TargetOrigin.
type DispatchNotificationPayload struct {
	TargetOrigin string          `json:"target_origin"`
	Envelope     notify.Envelope `json:"envelope"`
}

// NotificationShowPayload asks a browser session to show a notification.
// Clicking it must be reported back with NOTIFICATION_CLICK and the same ID.
type NotificationShowPayload struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Body               string `json:"body"`
	RequireInteraction bool   `json:"require_interaction"`
	Silent             bool   `json:"silent"`
}

type NotificationSoundPayload struct {
	SoundName string `json:"sound_name"`
}

type WindowFocusPayload struct{}

type NavigatePayload struct {
	URL         string `json:"url"`
	TeamName    string `json:"team_name,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
}

// ErrorPayload sent when the server rejects a client action
type ErrorPayload struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retry_after,omitempty"` // Unix ms timestamp
}

// Client -> Server payloads (via DISPATCH)

// IdentifyPayload sent by client to authenticate
type IdentifyPayload struct {
	Token                  string           `json:"token"`
	Presence               *PresenceOptions `json:"presence,omitempty"`
	Platform               PlatformInfo     `json:"platform"`
	NotificationPermission string           `json:"notification_permission"`
	Focused                bool             `json:"focused"`
}

// PresenceOptions for initial presence on IDENTIFY
type PresenceOptions struct {
	Status string `json:"status"` // online, away, dnd, ooo (not offline)
}

// PlatformInfo describes the client running a session.
type PlatformInfo struct {
	DesktopApp        bool   `json:"desktop_app"`
	DesktopAppVersion string `json:"desktop_app_version,omitempty"`
	MobileApp         bool   `json:"mobile_app"`
	OS                string `json:"os,omitempty"`
}

func (p PlatformInfo) context() notify.PlatformContext {
	return notify.PlatformContext{
		DesktopApp:        p.DesktopApp,
		DesktopAppVersion: p.DesktopAppVersion,
		MobileApp:         p.MobileApp,
		OS:                p.OS,
	}
}

// PresenceSetPayload sent by client to set presence
type PresenceSetPayload struct {
	Status string `json:"status"`
}

type WindowFocusSetPayload struct {
	Focused bool `json:"focused"`
}

type ThreadOpenPayload struct {
	RootID string `json:"root_id"`
}

type NotificationClickPayload struct {
	ID string `json:"id"`
}
