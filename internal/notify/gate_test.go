package notify

import (
	"testing"

	"lobbynotify/internal/models"
)

func TestShouldDeliver(t *testing.T) {
	tests := []struct {
		name   string
		modify func(msg *InboundMessage, rc *RecipientContext)
		want   bool
	}{
		{name: "plain post", modify: func(*InboundMessage, *RecipientContext) {}, want: true},
		{
			name:   "own post",
			modify: func(msg *InboundMessage, _ *RecipientContext) { msg.Post.UserID = "usr_me" },
			want:   false,
		},
		{
			name: "own webhook post",
			modify: func(msg *InboundMessage, _ *RecipientContext) {
				msg.Post.UserID = "usr_me"
				msg.Post.Props.FromWebhook = "true"
			},
			want: true,
		},
		{
			name: "webhook flag must be the string true",
			modify: func(msg *InboundMessage, _ *RecipientContext) {
				msg.Post.UserID = "usr_me"
				msg.Post.Props.FromWebhook = "yes"
			},
			want: false,
		},
		{
			name:   "system message",
			modify: func(msg *InboundMessage, _ *RecipientContext) { msg.Post.Type = "system_join_channel" },
			want:   false,
		},
		{
			name: "recipient added to channel",
			modify: func(msg *InboundMessage, _ *RecipientContext) {
				msg.Post.Type = models.PostTypeAddToChannel
				msg.Post.Props.AddedUserID = "usr_me"
			},
			want: true,
		},
		{
			name: "someone else added to channel",
			modify: func(msg *InboundMessage, _ *RecipientContext) {
				msg.Post.Type = models.PostTypeAddToChannel
				msg.Post.Props.AddedUserID = "usr_other"
			},
			want: false,
		},
		{
			name:   "not a member",
			modify: func(_ *InboundMessage, rc *RecipientContext) { rc.Member = nil },
			want:   false,
		},
		{
			name:   "muted channel",
			modify: func(_ *InboundMessage, rc *RecipientContext) { rc.Member.NotifyProps.MarkUnread = models.MarkUnreadMention },
			want:   false,
		},
		{
			name:   "do not disturb",
			modify: func(_ *InboundMessage, rc *RecipientContext) { rc.Status = models.StatusDoNotDisturb },
			want:   false,
		},
		{
			name:   "out of office",
			modify: func(_ *InboundMessage, rc *RecipientContext) { rc.Status = models.StatusOutOfOffice },
			want:   false,
		},
		{
			name:   "away still notifies",
			modify: func(_ *InboundMessage, rc *RecipientContext) { rc.Status = models.StatusAway },
			want:   true,
		},
		{
			name:   "level none",
			modify: func(_ *InboundMessage, rc *RecipientContext) { rc.Member.NotifyProps.Desktop = models.NotifyLevelNone },
			want:   false,
		},
		{
			name:   "level mention without mention",
			modify: func(_ *InboundMessage, rc *RecipientContext) { rc.Member.NotifyProps.Desktop = models.NotifyLevelMention },
			want:   false,
		},
		{
			name: "level mention with mention",
			modify: func(msg *InboundMessage, rc *RecipientContext) {
				rc.Member.NotifyProps.Desktop = models.NotifyLevelMention
				msg.Props.Mentions = []string{"usr_x", "usr_me"}
			},
			want: true,
		},
		{
			name: "reply in open thread",
			modify: func(msg *InboundMessage, rc *RecipientContext) {
				msg.Post.RootID = "post_root"
				rc.OpenThreadID = "post_root"
			},
			want: false,
		},
		{
			name: "reply in another thread",
			modify: func(msg *InboundMessage, rc *RecipientContext) {
				msg.Post.RootID = "post_root"
				rc.OpenThreadID = "post_other"
			},
			want: true,
		},
		{
			name: "root post with no thread open",
			modify: func(_ *InboundMessage, rc *RecipientContext) {
				rc.OpenThreadID = ""
			},
			want: true,
		},
		{
			name: "root id from metadata",
			modify: func(msg *InboundMessage, rc *RecipientContext) {
				msg.Props.RootID = "post_root"
				rc.OpenThreadID = "post_root"
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := testPost("usr_author", "hello")
			rc := testRecipient()
			tt.modify(msg, rc)

			if got := ShouldDeliver(msg, rc); got != tt.want {
				t.Fatalf("ShouldDeliver() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldDeliverMutedOverridesLevel(t *testing.T) {
	for _, level := range []string{"all", "mention", "default", ""} {
		msg := testPost("usr_author", "hi @me")
		msg.Props.Mentions = []string{"usr_me"}
		rc := testRecipient()
		rc.Member.NotifyProps = models.ChannelNotifyProps{Desktop: level, MarkUnread: models.MarkUnreadMention}

		if ShouldDeliver(msg, rc) {
			t.Fatalf("ShouldDeliver() = true for muted channel with level %q", level)
		}
	}
}
