package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lobbynotify/internal/models"
)

func newTestNotifier(t *testing.T, profiles ProfileSource) *Notifier {
	t.Helper()
	return NewNotifier(newTestComposer(t), NewRouter(&fakeErrors{}), profiles, nil)
}

func TestSendDesktopNotification(t *testing.T) {
	profiles := &fakeProfiles{known: map[string]*models.User{"usr_author": {ID: "usr_author", Username: "jdoe"}}}
	n := newTestNotifier(t, profiles)
	browser := &fakeBrowser{}

	n.SendDesktopNotification(context.Background(), testPost("usr_author", "hello"), nil, testRecipient(), Target{Browser: browser})

	if len(browser.shown) != 1 {
		t.Fatalf("browser notifications = %d, want 1", len(browser.shown))
	}
	if got := browser.shown[0].Body; got != "@jdoe: hello" {
		t.Fatalf("Body = %q, want %q", got, "@jdoe: hello")
	}
	if profiles.calls != 0 {
		t.Fatalf("FetchProfiles calls = %d, want 0 for a known author", profiles.calls)
	}
}

func TestSendDesktopNotificationFetchesUnknownAuthor(t *testing.T) {
	profiles := &fakeProfiles{fetched: map[string]*models.User{"usr_author": {ID: "usr_author", Username: "remote"}}}
	n := newTestNotifier(t, profiles)
	browser := &fakeBrowser{}

	n.SendDesktopNotification(context.Background(), testPost("usr_author", "hello"), nil, testRecipient(), Target{Browser: browser})

	if profiles.calls != 1 {
		t.Fatalf("FetchProfiles calls = %d, want 1", profiles.calls)
	}
	if got := browser.shown[0].Body; got != "@remote: hello" {
		t.Fatalf("Body = %q, want %q", got, "@remote: hello")
	}
}

func TestSendDesktopNotificationMentionLevelWithoutMentionSkips(t *testing.T) {
	n := newTestNotifier(t, &fakeProfiles{})
	browser := &fakeBrowser{}
	bridge := &fakeBridge{}

	msg := testPost("usr_author", "hello")
	msg.Props.Mentions = []string{"usr_other"}
	rc := testRecipient()
	rc.Member.NotifyProps.Desktop = models.NotifyLevelMention

	n.SendDesktopNotification(context.Background(), msg, nil, rc, Target{
		Platform: PlatformContext{DesktopApp: true, DesktopAppVersion: "5.0.0"},
		Bridge:   bridge,
		Browser:  browser,
	})

	if len(browser.shown)+len(bridge.posted) != 0 {
		t.Fatal("expected no dispatch without a mention")
	}
}

func TestSendDesktopNotificationSkipsReplyInOpenThread(t *testing.T) {
	n := newTestNotifier(t, &fakeProfiles{})
	browser := &fakeBrowser{}

	msg := testPost("usr_author", "reply")
	msg.Post.RootID = "post_root"
	rc := testRecipient()
	rc.OpenThreadID = "post_root"

	n.SendDesktopNotification(context.Background(), msg, nil, rc, Target{Browser: browser})

	if len(browser.shown) != 0 {
		t.Fatal("expected no dispatch for a reply in the open thread")
	}
}

func TestSendDesktopNotificationUnknownAuthorUsesPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		profiles *fakeProfiles
	}{
		{name: "empty lookup", profiles: &fakeProfiles{}},
		{name: "lookup error", profiles: &fakeProfiles{err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNotifier(t, tt.profiles)
			browser := &fakeBrowser{}

			n.SendDesktopNotification(context.Background(), testPost("usr_author", "hello"), nil, testRecipient(), Target{Browser: browser})

			if len(browser.shown) != 1 {
				t.Fatalf("browser notifications = %d, want 1", len(browser.shown))
			}
			if got := browser.shown[0].Body; !strings.HasPrefix(got, "@Someone") {
				t.Fatalf("Body = %q, want placeholder author", got)
			}
		})
	}
}

func TestSendDesktopNotificationUsernameOverride(t *testing.T) {
	profiles := &fakeProfiles{known: map[string]*models.User{"usr_author": {ID: "usr_author", Username: "jdoe"}}}
	n := newTestNotifier(t, profiles)

	msg := testPost("usr_author", "deployed")
	msg.Post.Props.OverrideUsername = "ci-bot"

	for _, enabled := range []bool{false, true} {
		browser := &fakeBrowser{}
		n.SetUsernameOverride(enabled)
		n.SendDesktopNotification(context.Background(), msg, nil, testRecipient(), Target{Browser: browser})

		want := "@jdoe: deployed"
		if enabled {
			want = "@ci-bot: deployed"
		}
		if got := browser.shown[0].Body; got != want {
			t.Fatalf("override=%v: Body = %q, want %q", enabled, got, want)
		}
	}
}

func TestSendDesktopNotificationFocusedIsSilent(t *testing.T) {
	n := newTestNotifier(t, &fakeProfiles{})
	bridge := &fakeBridge{}
	rc := testRecipient()
	rc.Focused = true

	n.SendDesktopNotification(context.Background(), testPost("usr_author", "hi"), nil, rc, Target{
		Platform: PlatformContext{DesktopApp: true, DesktopAppVersion: "4.3.0"},
		Bridge:   bridge,
	})

	if len(bridge.posted) != 1 || !bridge.posted[0].Message.Silent {
		t.Fatalf("posted = %+v, want one silent envelope", bridge.posted)
	}
}
