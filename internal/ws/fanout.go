package ws

import (
	"context"
	"fmt"
	"log/slog"

	"lobbynotify/internal/models"
	"lobbynotify/internal/notify"
)

// PublishPost delivers a new post to the sessions of every channel member
// and starts one notification pipeline per session. Pipelines run in the
// background and outlive ctx's cancellation.
func (h *Hub) PublishPost(ctx context.Context, post *models.Post, channel *models.Channel, props notify.MessageProps) {
	members, err := h.channels.ListMembers(post.ChannelID)
	if err != nil {
		slog.Error("listing channel members failed", "component", "hub", "channel_id", post.ChannelID, "error", err)
		return
	}

	payload := MessageCreatePayload{Post: post, Props: props}
	msg := &notify.InboundMessage{Post: post, Props: props}
	background := context.WithoutCancel(ctx)

	for _, member := range members {
		sessions := h.sessionsFor(member.UserID)
		if len(sessions) == 0 {
			continue
		}

		for _, c := range sessions {
			_ = c.dispatch(EventMessageCreate, payload)
		}

		base, err := h.recipientContext(member)
		if err != nil {
			slog.Warn("loading recipient failed", "component", "hub", "user_id", member.UserID, "error", err)
			continue
		}

		for _, c := range sessions {
			rc := *base
			rc.Focused = c.Focused()
			rc.OpenThreadID = c.OpenThread()
			target := c.notifyTarget(h.clicks)

			if !h.startPipeline() {
				return
			}
			go func() {
				defer h.pipelines.Done()
				h.notifier.SendDesktopNotification(background, msg, channel, &rc, target)
			}()
		}
	}
}

// recipientContext snapshots the account-wide state of a channel member.
// Session state is filled in by the caller.
func (h *Hub) recipientContext(member *models.ChannelMember) (*notify.RecipientContext, error) {
	user, err := h.users.FindByID(member.UserID)
	if err != nil {
		return nil, fmt.Errorf("finding recipient: %w", err)
	}

	nameDisplay, _, err := h.preferences.Get(member.UserID, models.PreferenceCategoryDisplay, models.PreferenceNameTeammateDisplay)
	if err != nil {
		return nil, fmt.Errorf("loading name display preference: %w", err)
	}
	collapsed, _, err := h.preferences.Get(member.UserID, models.PreferenceCategoryDisplay, models.PreferenceNameCollapsedThreads)
	if err != nil {
		return nil, fmt.Errorf("loading collapsed threads preference: %w", err)
	}

	return &notify.RecipientContext{
		UserID:              member.UserID,
		Status:              h.UserStatus(member.UserID),
		User:                user,
		Member:              member,
		TeammateNameDisplay: nameDisplay,
		CollapsedThreads:    collapsed == collapsedThreadsOn,
	}, nil
}
