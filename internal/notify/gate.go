package notify

import "lobbynotify/internal/models"

// ShouldDeliver reports whether msg should notify the recipient described by rc.
func ShouldDeliver(msg *InboundMessage, rc *RecipientContext) bool {
	if shouldSkip(msg, rc) {
		return false
	}

	switch ResolveLevel(rc) {
	case LevelNone:
		return false
	case LevelMention:
		return msg.mentions(rc.UserID)
	case LevelAll:
		// Already on screen.
		return !rc.isThreadOpen(msg.rootID())
	}
	return true
}

func shouldSkip(msg *InboundMessage, rc *RecipientContext) bool {
	post := msg.Post

	// Webhook posts made with the recipient's own token still notify.
	if post.UserID == rc.UserID && !post.FromWebhook() {
		return true
	}
	if post.IsSystemMessage() && !post.IsUserAddedInChannel(rc.UserID) {
		return true
	}
	if rc.Member == nil || rc.Member.IsMuted() {
		return true
	}
	return rc.Status == models.StatusDoNotDisturb || rc.Status == models.StatusOutOfOffice
}
