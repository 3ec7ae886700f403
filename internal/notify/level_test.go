package notify

import (
	"testing"

	"lobbynotify/internal/models"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		user    string
		noUser  bool
		want    NotifyLevel
	}{
		{name: "channel override wins", channel: "none", user: "all", want: LevelNone},
		{name: "channel mention", channel: "mention", user: "none", want: LevelMention},
		{name: "channel default uses user", channel: "default", user: "mention", want: LevelMention},
		{name: "channel unset uses user", channel: "", user: "none", want: LevelNone},
		{name: "user default falls back to all", channel: "default", user: "default", want: LevelAll},
		{name: "user unset falls back to all", channel: "", user: "", want: LevelAll},
		{name: "no user profile", channel: "", noUser: true, want: LevelAll},
		{name: "unknown channel value ignored", channel: "bogus", user: "mention", want: LevelMention},
		{name: "unknown user value", channel: "", user: "bogus", want: LevelAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &RecipientContext{
				Member: &models.ChannelMember{NotifyProps: models.ChannelNotifyProps{Desktop: tt.channel}},
			}
			if !tt.noUser {
				rc.User = &models.User{NotifyProps: models.UserNotifyProps{Desktop: tt.user}}
			}
			if got := ResolveLevel(rc); got != tt.want {
				t.Fatalf("ResolveLevel(channel=%q, user=%q) = %q, want %q", tt.channel, tt.user, got, tt.want)
			}
		})
	}
}

func TestResolveLevelNeverDefault(t *testing.T) {
	values := []string{"", "default", "all", "mention", "none", "bogus"}
	for _, channel := range values {
		for _, user := range values {
			rc := &RecipientContext{
				User:   &models.User{NotifyProps: models.UserNotifyProps{Desktop: user}},
				Member: &models.ChannelMember{NotifyProps: models.ChannelNotifyProps{Desktop: channel}},
			}
			if got := ResolveLevel(rc); !got.IsTerminal() {
				t.Fatalf("ResolveLevel(channel=%q, user=%q) = %q, want none, mention or all", channel, user, got)
			}
		}
	}
}
