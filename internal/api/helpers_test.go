package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"lobbynotify/internal/db"
	"lobbynotify/internal/models"
	"lobbynotify/internal/notify"
)

type published struct {
	post    *models.Post
	channel *models.Channel
	props   notify.MessageProps
}

type fakePublisher struct {
	mu    sync.Mutex
	posts []published
}

func (f *fakePublisher) PublishPost(_ context.Context, post *models.Post, channel *models.Channel, props notify.MessageProps) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, published{post: post, channel: channel, props: props})
}

func (f *fakePublisher) last(t *testing.T) published {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts) == 0 {
		t.Fatal("no post published")
	}
	return f.posts[len(f.posts)-1]
}

type testStore struct {
	database *db.DB
	users    *db.UserRepository
	teams    *db.TeamRepository
	channels *db.ChannelRepository
	posts    *db.PostRepository
	prefs    *db.PreferenceRepository
}

func openTestStore(t *testing.T) *testStore {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "lobby.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return &testStore{
		database: database,
		users:    db.NewUserRepository(database),
		teams:    db.NewTeamRepository(database),
		channels: db.NewChannelRepository(database),
		posts:    db.NewPostRepository(database),
		prefs:    db.NewPreferenceRepository(database),
	}
}

func (s *testStore) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := s.users.Create(db.CreateUserParams{Username: username, Email: username + "@example.com"})
	if err != nil {
		t.Fatalf("users.Create(%q) error = %v", username, err)
	}
	return u
}

// createChannel creates an open channel in a fresh team with the given members.
func (s *testStore) createChannel(t *testing.T, members ...*models.User) *models.Channel {
	t.Helper()
	team, err := s.teams.Create("eng", "Engineering")
	if err != nil {
		t.Fatalf("teams.Create() error = %v", err)
	}
	ch, err := s.channels.Create(team.ID, "dev", "Dev", models.ChannelTypeOpen)
	if err != nil {
		t.Fatalf("channels.Create() error = %v", err)
	}
	for _, m := range members {
		if _, err := s.channels.AddMember(ch.ID, m.ID); err != nil {
			t.Fatalf("AddMember() error = %v", err)
		}
	}
	return ch
}

// do routes a request through pattern so URL params resolve, authenticated as userID.
func do(t *testing.T, method, pattern, path, body, userID string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, userID))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	return resp
}
