package notify

import (
	"context"
	"log/slog"

	"lobbynotify/internal/models"
)

// EventDispatchNotification is the envelope type the desktop app listens for.
const EventDispatchNotification = "dispatch-notification"

// Envelope is posted across the companion bridge.
type Envelope struct {
	Type    string          `json:"type"`
	Message DispatchMessage `json:"message"`
}

// DispatchMessage is the envelope payload. Data and URL are set only when
// the companion supports them.
type DispatchMessage struct {
	Title   string        `json:"title"`
	Body    string        `json:"body"`
	Channel string        `json:"channel"`
	TeamID  string        `json:"teamId"`
	Silent  bool          `json:"silent"`
	Data    *DispatchData `json:"data,omitempty"`
	URL     *string       `json:"url,omitempty"`
}

type DispatchData struct {
	SoundName string `json:"soundName"`
}

// BuildDispatchMessage maps n onto the envelope payload for caps.
func BuildDispatchMessage(n ComposedNotification, silent bool, caps CapabilitySet) DispatchMessage {
	msg := DispatchMessage{
		Title:   n.Title,
		Body:    n.Body,
		Channel: n.ChannelID,
		TeamID:  n.TeamID,
		Silent:  silent,
	}
	if caps.Has(CapabilitySound) {
		msg.Data = &DispatchData{SoundName: n.SoundName}
	}
	if caps.Has(CapabilityURL) {
		url := n.URL
		msg.URL = &url
	}
	return msg
}

// Bridge posts envelopes to the desktop app hosting a session.
type Bridge interface {
	PostMessage(ctx context.Context, env Envelope, targetOrigin string) error
}

// BrowserNotification is what the browser surface is asked to show.
type BrowserNotification struct {
	Title              string
	Body               string
	RequireInteraction bool
	Silent             bool
	OnClick            func(ctx context.Context)
}

// BrowserNotifier shows a native browser notification. It returns
// ErrPermissionDenied or ErrUnsupported when it cannot.
type BrowserNotifier interface {
	ShowNotification(ctx context.Context, n BrowserNotification) error
}

// SoundPlayer plays a named sound cue.
type SoundPlayer interface {
	Ding(ctx context.Context, soundName string)
}

// Window controls the client window of a session.
type Window interface {
	Focus(ctx context.Context)
	Navigate(ctx context.Context, url string)
}

// ErrorLogger records delivery failures.
type ErrorLogger interface {
	LogError(ctx context.Context, err error, attrs ...any)
}

// SlogErrorLogger logs delivery failures at warn level.
type SlogErrorLogger struct {
	Logger *slog.Logger
}

func (l SlogErrorLogger) LogError(ctx context.Context, err error, attrs ...any) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "notification delivery failed", append([]any{"error", err}, attrs...)...)
}

// Target is one recipient session and its delivery surfaces. Any surface
// may be nil when the session lacks it.
type Target struct {
	SessionID string
	Origin    string
	Platform  PlatformContext

	Bridge  Bridge
	Browser BrowserNotifier
	Sound   SoundPlayer
	Window  Window
}

// Router hands composed notifications to the right surface of a target.
type Router struct {
	errs ErrorLogger
}

func NewRouter(errs ErrorLogger) *Router {
	if errs == nil {
		errs = SlogErrorLogger{}
	}
	return &Router{errs: errs}
}

// Dispatch delivers n. A focused recipient gets a silent notification.
// Surface failures are logged, never returned.
func (r *Router) Dispatch(ctx context.Context, n ComposedNotification, focused bool, t Target) {
	silent := focused

	if caps := Negotiate(t.Platform); caps.BridgeAvailable() && t.Bridge != nil {
		env := Envelope{
			Type:    EventDispatchNotification,
			Message: BuildDispatchMessage(n, silent, caps),
		}
		if err := t.Bridge.PostMessage(ctx, env, t.Origin); err != nil {
			r.errs.LogError(ctx, err, "surface", "bridge", "session_id", t.SessionID)
		}
	} else if t.Browser != nil {
		err := t.Browser.ShowNotification(ctx, BrowserNotification{
			Title:              n.Title,
			Body:               n.Body,
			RequireInteraction: false,
			Silent:             silent,
			OnClick: func(ctx context.Context) {
				if t.Window == nil {
					return
				}
				t.Window.Focus(ctx)
				t.Window.Navigate(ctx, n.URL)
			},
		})
		if err != nil {
			r.errs.LogError(ctx, err, "surface", "browser", "session_id", t.SessionID)
		}
	}

	// Desktop and mobile apps play their own sounds.
	if !t.Platform.DesktopApp && !t.Platform.MobileApp && t.Sound != nil && n.SoundName != models.NoSound {
		t.Sound.Ding(ctx, n.SoundName)
	}
}
