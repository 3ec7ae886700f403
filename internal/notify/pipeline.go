package notify

import (
	"context"
	"log/slog"
	"sync/atomic"

	"lobbynotify/internal/models"
)

// ProfileSource finds user profiles. KnownUser must not block;
// FetchProfiles may.
type ProfileSource interface {
	KnownUser(id string) *models.User
	FetchProfiles(ctx context.Context, ids []string) ([]*models.User, error)
}

// Notifier runs the desktop notification pipeline.
type Notifier struct {
	composer *Composer
	router   *Router
	profiles ProfileSource
	logger   *slog.Logger

	allowUsernameOverride atomic.Bool
}

func NewNotifier(composer *Composer, router *Router, profiles ProfileSource, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		composer: composer,
		router:   router,
		profiles: profiles,
		logger:   logger.With("component", "notify"),
	}
}

// SetUsernameOverride toggles whether posts may show an override username.
func (n *Notifier) SetUsernameOverride(enabled bool) {
	n.allowUsernameOverride.Store(enabled)
}

// SendDesktopNotification notifies the recipient rc about msg through
// target, if the recipient should be notified at all. channel may be nil,
// in which case the post metadata is used. It never fails; delivery
// problems are logged.
func (n *Notifier) SendDesktopNotification(ctx context.Context, msg *InboundMessage, channel *models.Channel, rc *RecipientContext, target Target) {
	if !ShouldDeliver(msg, rc) {
		return
	}

	composed := n.composer.Compose(ComposeInput{
		Message:               msg,
		Channel:               channel,
		Author:                n.author(ctx, msg.Post.UserID),
		Recipient:             rc,
		Platform:              target.Platform,
		AllowUsernameOverride: n.allowUsernameOverride.Load(),
	})

	n.router.Dispatch(ctx, composed, rc.Focused, target)

	n.logger.DebugContext(ctx, "desktop notification dispatched",
		"post_id", msg.Post.ID,
		"user_id", rc.UserID,
		"session_id", target.SessionID,
	)
}

// author returns the post author, or nil when it cannot be found.
func (n *Notifier) author(ctx context.Context, userID string) *models.User {
	if n.profiles == nil || userID == "" {
		return nil
	}
	if u := n.profiles.KnownUser(userID); u != nil {
		return u
	}

	users, err := n.profiles.FetchProfiles(ctx, []string{userID})
	if err != nil {
		n.logger.DebugContext(ctx, "fetching post author failed", "user_id", userID, "error", err)
		return nil
	}
	for _, u := range users {
		if u != nil && u.ID == userID {
			return u
		}
	}
	return nil
}
