package notify

import (
	"context"
	"sync"
	"testing"

	"lobbynotify/internal/chanurl"
	"lobbynotify/internal/i18n"
	"lobbynotify/internal/markdown"
	"lobbynotify/internal/models"
)

type teamNames map[string]string

func (t teamNames) TeamName(id string) string { return t[id] }

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	bundle, err := i18n.NewBundle("en")
	if err != nil {
		t.Fatalf("NewBundle() error = %v", err)
	}
	return NewComposer(bundle, chanurl.NewBuilder(teamNames{"team_1": "eng"}), markdown.Strip)
}

func testPost(authorID, message string) *InboundMessage {
	return &InboundMessage{
		Post: &models.Post{
			ID:        "post_1",
			ChannelID: "chn_1",
			UserID:    authorID,
			Message:   message,
		},
		Props: MessageProps{
			ChannelDisplayName: "Town Square",
			ChannelName:        "town-square",
			ChannelType:        models.ChannelTypeOpen,
			TeamID:             "team_1",
		},
	}
}

func testRecipient() *RecipientContext {
	return &RecipientContext{
		UserID: "usr_me",
		Status: models.StatusOnline,
		User: &models.User{
			ID:          "usr_me",
			Username:    "me",
			NotifyProps: models.UserNotifyProps{Desktop: models.NotifyLevelAll, DesktopSound: true},
		},
		Member: &models.ChannelMember{ChannelID: "chn_1", UserID: "usr_me"},
	}
}

type fakeBridge struct {
	mu      sync.Mutex
	posted  []Envelope
	origins []string
	err     error
}

func (b *fakeBridge) PostMessage(_ context.Context, env Envelope, origin string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posted = append(b.posted, env)
	b.origins = append(b.origins, origin)
	return b.err
}

type fakeBrowser struct {
	mu    sync.Mutex
	shown []BrowserNotification
	err   error
}

func (b *fakeBrowser) ShowNotification(_ context.Context, n BrowserNotification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shown = append(b.shown, n)
	return b.err
}

type fakeSound struct {
	played []string
}

func (s *fakeSound) Ding(_ context.Context, name string) { s.played = append(s.played, name) }

type fakeWindow struct {
	focused   int
	navigated []string
}

func (w *fakeWindow) Focus(context.Context)                { w.focused++ }
func (w *fakeWindow) Navigate(_ context.Context, u string) { w.navigated = append(w.navigated, u) }

type fakeErrors struct {
	errs []error
}

func (e *fakeErrors) LogError(_ context.Context, err error, _ ...any) { e.errs = append(e.errs, err) }

type fakeProfiles struct {
	known   map[string]*models.User
	fetched map[string]*models.User
	err     error
	calls   int
}

func (p *fakeProfiles) KnownUser(id string) *models.User { return p.known[id] }

func (p *fakeProfiles) FetchProfiles(_ context.Context, ids []string) ([]*models.User, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	var out []*models.User
	for _, id := range ids {
		if u, ok := p.fetched[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
