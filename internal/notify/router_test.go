package notify

import (
	"context"
	"errors"
	"testing"
)

var testNotification = ComposedNotification{
	Title:     "Dev",
	Body:      "@jdoe: hi",
	SoundName: "Crackle",
	URL:       "/eng/channels/dev",
	ChannelID: "chn_1",
	TeamID:    "team_1",
}

func TestDispatchBridge(t *testing.T) {
	errs := &fakeErrors{}
	bridge := &fakeBridge{}
	browser := &fakeBrowser{}
	sound := &fakeSound{}

	NewRouter(errs).Dispatch(context.Background(), testNotification, true, Target{
		Origin:   "https://chat.example.com",
		Platform: PlatformContext{DesktopApp: true, DesktopAppVersion: "4.7.2"},
		Bridge:   bridge,
		Browser:  browser,
		Sound:    sound,
	})

	if len(bridge.posted) != 1 {
		t.Fatalf("bridge posts = %d, want 1", len(bridge.posted))
	}
	env := bridge.posted[0]
	if env.Type != EventDispatchNotification {
		t.Fatalf("envelope type = %q, want %q", env.Type, EventDispatchNotification)
	}
	if !env.Message.Silent {
		t.Fatal("expected silent envelope for a focused recipient")
	}
	if env.Message.Data == nil || env.Message.Data.SoundName != "Crackle" {
		t.Fatalf("data = %+v, want sound Crackle", env.Message.Data)
	}
	if env.Message.URL == nil || *env.Message.URL != "/eng/channels/dev" {
		t.Fatalf("url = %v, want /eng/channels/dev", env.Message.URL)
	}
	if bridge.origins[0] != "https://chat.example.com" {
		t.Fatalf("target origin = %q", bridge.origins[0])
	}
	if len(browser.shown) != 0 {
		t.Fatal("browser surface used alongside the bridge")
	}
	if len(sound.played) != 0 {
		t.Fatal("desktop app session should not get an explicit sound cue")
	}
}

func TestDispatchOldDesktopFallsBackToBrowser(t *testing.T) {
	bridge := &fakeBridge{}
	browser := &fakeBrowser{}

	NewRouter(&fakeErrors{}).Dispatch(context.Background(), testNotification, false, Target{
		Platform: PlatformContext{DesktopApp: true, DesktopAppVersion: "4.2.0"},
		Bridge:   bridge,
		Browser:  browser,
	})

	if len(bridge.posted) != 0 {
		t.Fatal("bridge used below the minimum version")
	}
	if len(browser.shown) != 1 {
		t.Fatalf("browser notifications = %d, want 1", len(browser.shown))
	}
}

func TestDispatchBrowser(t *testing.T) {
	browser := &fakeBrowser{}
	sound := &fakeSound{}
	window := &fakeWindow{}

	NewRouter(&fakeErrors{}).Dispatch(context.Background(), testNotification, false, Target{
		Browser: browser,
		Sound:   sound,
		Window:  window,
	})

	if len(browser.shown) != 1 {
		t.Fatalf("browser notifications = %d, want 1", len(browser.shown))
	}
	n := browser.shown[0]
	if n.Title != "Dev" || n.Body != "@jdoe: hi" || n.Silent || n.RequireInteraction {
		t.Fatalf("unexpected notification %+v", n)
	}

	n.OnClick(context.Background())
	if window.focused != 1 {
		t.Fatalf("focus calls = %d, want 1", window.focused)
	}
	if len(window.navigated) != 1 || window.navigated[0] != "/eng/channels/dev" {
		t.Fatalf("navigated = %v, want [/eng/channels/dev]", window.navigated)
	}

	if len(sound.played) != 1 || sound.played[0] != "Crackle" {
		t.Fatalf("sound cues = %v, want [Crackle]", sound.played)
	}
}

func TestDispatchMobileSkipsSound(t *testing.T) {
	sound := &fakeSound{}
	NewRouter(&fakeErrors{}).Dispatch(context.Background(), testNotification, false, Target{
		Platform: PlatformContext{MobileApp: true},
		Browser:  &fakeBrowser{},
		Sound:    sound,
	})
	if len(sound.played) != 0 {
		t.Fatalf("sound cues = %v, want none", sound.played)
	}
}

func TestDispatchNoSoundSkipsCue(t *testing.T) {
	sound := &fakeSound{}
	n := testNotification
	n.SoundName = "None"

	NewRouter(&fakeErrors{}).Dispatch(context.Background(), n, false, Target{Browser: &fakeBrowser{}, Sound: sound})
	if len(sound.played) != 0 {
		t.Fatalf("sound cues = %v, want none", sound.played)
	}
}

func TestDispatchLogsSurfaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		target Target
	}{
		{name: "browser denied", target: Target{Browser: &fakeBrowser{err: ErrPermissionDenied}}},
		{name: "browser unsupported", target: Target{Browser: &fakeBrowser{err: ErrUnsupported}}},
		{
			name: "bridge closed",
			target: Target{
				Platform: PlatformContext{DesktopApp: true, DesktopAppVersion: "5.0.0"},
				Bridge:   &fakeBridge{err: ErrSessionClosed},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := &fakeErrors{}
			NewRouter(errs).Dispatch(context.Background(), testNotification, false, tt.target)
			if len(errs.errs) != 1 {
				t.Fatalf("logged errors = %d, want 1", len(errs.errs))
			}
			if !errors.Is(errs.errs[0], ErrPermissionDenied) && !errors.Is(errs.errs[0], ErrUnsupported) && !errors.Is(errs.errs[0], ErrSessionClosed) {
				t.Fatalf("unexpected error %v", errs.errs[0])
			}
		})
	}
}
