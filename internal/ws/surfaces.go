package ws

import (
	"context"

	"lobbynotify/internal/chanurl"
	"lobbynotify/internal/notify"
)

// The types below are the notification surfaces of one client session.
// Each turns a notify call into an event on that session's socket.

type sessionBridge struct{ c *Client }

func (b sessionBridge) PostMessage(_ context.Context, env notify.Envelope, targetOrigin string) error {
	return b.c.dispatch(EventDispatchNotification, DispatchNotificationPayload{
		TargetOrigin: targetOrigin,
		Envelope:     env,
	})
}

type sessionBrowser struct {
	c      *Client
	clicks *ClickRegistry
}

func (b sessionBrowser) ShowNotification(_ context.Context, n notify.BrowserNotification) error {
	switch b.c.Permission() {
	case PermissionGranted:
	case PermissionUnsupported:
		return notify.ErrUnsupported
	default:
		return notify.ErrPermissionDenied
	}

	id := b.clicks.Register(b.c.sessionID, n.OnClick)
	err := b.c.dispatch(EventNotificationShow, NotificationShowPayload{
		ID:                 id,
		Title:              n.Title,
		Body:               n.Body,
		RequireInteraction: n.RequireInteraction,
		Silent:             n.Silent,
	})
	if err != nil {
		b.clicks.Take(b.c.sessionID, id)
	}
	return err
}

type sessionSound struct{ c *Client }

func (s sessionSound) Ding(_ context.Context, soundName string) {
	_ = s.c.dispatch(EventNotificationSound, NotificationSoundPayload{SoundName: soundName})
}

type sessionWindow struct{ c *Client }

func (w sessionWindow) Focus(context.Context) {
	_ = w.c.dispatch(EventWindowFocus, WindowFocusPayload{})
}

func (w sessionWindow) Navigate(_ context.Context, url string) {
	team, channel, _ := chanurl.Parse(url)
	_ = w.c.dispatch(EventNavigate, NavigatePayload{URL: url, TeamName: team, ChannelName: channel})
}

// notifyTarget bundles the surfaces of c for the notification pipeline.
func (c *Client) notifyTarget(clicks *ClickRegistry) notify.Target {
	return notify.Target{
		SessionID: c.sessionID,
		Origin:    c.origin,
		Platform:  c.platform.context(),
		Bridge:    sessionBridge{c: c},
		Browser:   sessionBrowser{c: c, clicks: clicks},
		Sound:     sessionSound{c: c},
		Window:    sessionWindow{c: c},
	}
}
