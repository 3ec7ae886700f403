package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"slices"
	"strings"
	"testing"

	"lobbynotify/internal/constants"
	"lobbynotify/internal/models"
)

func TestParseMentions(t *testing.T) {
	tests := []struct {
		name         string
		message      string
		wantNames    []string
		wantEveryone bool
	}{
		{name: "none", message: "hello there"},
		{name: "single", message: "hey @bob", wantNames: []string{"bob"}},
		{name: "trailing punctuation", message: "thanks @bob.", wantNames: []string{"bob"}},
		{name: "case folded and deduped", message: "@Bob and @bob", wantNames: []string{"bob"}},
		{name: "email is not a mention", message: "mail me at me@example.com"},
		{name: "channel wide", message: "@channel standup", wantEveryone: true},
		{name: "all with user", message: "@all and @carol", wantNames: []string{"carol"}, wantEveryone: true},
		{name: "dotted username", message: "ping @j.doe", wantNames: []string{"j.doe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, everyone := parseMentions(tt.message)
			if !reflect.DeepEqual(names, tt.wantNames) {
				t.Fatalf("parseMentions(%q) names = %v, want %v", tt.message, names, tt.wantNames)
			}
			if everyone != tt.wantEveryone {
				t.Fatalf("parseMentions(%q) everyone = %v, want %v", tt.message, everyone, tt.wantEveryone)
			}
		})
	}
}

func TestCreatePostPublishesResolvedMentions(t *testing.T) {
	store := openTestStore(t)
	alice := store.createUser(t, "alice")
	bob := store.createUser(t, "bob")
	outsider := store.createUser(t, "carol")
	channel := store.createChannel(t, alice, bob)

	pub := &fakePublisher{}
	handler := NewPostHandler(store.posts, store.users, store.channels, pub)

	body := `{"message":"hi @bob and @carol","image":true}`
	rr := do(t, http.MethodPost, "/channels/{channelID}/posts", "/channels/"+channel.ID+"/posts", body, alice.ID, handler.Create)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%q", rr.Code, http.StatusCreated, rr.Body.String())
	}

	got := pub.last(t)
	if got.post.UserID != alice.ID || got.post.Message != "hi @bob and @carol" {
		t.Fatalf("published post = %+v", got.post)
	}
	if !reflect.DeepEqual(got.props.Mentions, []string{bob.ID}) {
		t.Fatalf("mentions = %v, want only %q (non-member %q dropped)", got.props.Mentions, bob.ID, outsider.ID)
	}
	if got.props.ChannelDisplayName != "Dev" || got.props.ChannelType != models.ChannelTypeOpen || got.props.TeamID != channel.TeamID {
		t.Fatalf("channel props = %+v", got.props)
	}
	if !got.props.Image || got.props.OtherFile {
		t.Fatalf("image/otherFile = %v/%v, want true/false", got.props.Image, got.props.OtherFile)
	}

	var serialized models.Post
	if err := json.Unmarshal([]byte(got.props.Post), &serialized); err != nil {
		t.Fatalf("serialized post: %v", err)
	}
	if serialized.ID != got.post.ID {
		t.Fatalf("serialized post id = %q, want %q", serialized.ID, got.post.ID)
	}
}

func TestCreatePostChannelWideMentionIncludesEveryMember(t *testing.T) {
	store := openTestStore(t)
	alice := store.createUser(t, "alice")
	bob := store.createUser(t, "bob")
	channel := store.createChannel(t, alice, bob)

	pub := &fakePublisher{}
	handler := NewPostHandler(store.posts, store.users, store.channels, pub)

	rr := do(t, http.MethodPost, "/channels/{channelID}/posts", "/channels/"+channel.ID+"/posts", `{"message":"@here standup"}`, alice.ID, handler.Create)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body=%q", rr.Code, rr.Body.String())
	}

	mentions := pub.last(t).props.Mentions
	if len(mentions) != 2 || !slices.Contains(mentions, alice.ID) || !slices.Contains(mentions, bob.ID) {
		t.Fatalf("mentions = %v, want both members", mentions)
	}
}

func TestCreatePostRejections(t *testing.T) {
	store := openTestStore(t)
	alice := store.createUser(t, "alice")
	outsider := store.createUser(t, "mallory")
	channel := store.createChannel(t, alice)

	pub := &fakePublisher{}
	handler := NewPostHandler(store.posts, store.users, store.channels, pub)
	path := "/channels/" + channel.ID + "/posts"

	tests := []struct {
		name     string
		path     string
		userID   string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "non member", path: path, userID: outsider.ID, body: `{"message":"hi"}`, wantCode: http.StatusForbidden, wantErr: constants.ErrCodeNotChannelMember},
		{name: "unknown channel", path: "/channels/ch_missing/posts", userID: alice.ID, body: `{"message":"hi"}`, wantCode: http.StatusNotFound, wantErr: constants.ErrCodeNotFound},
		{name: "empty message", path: path, userID: alice.ID, body: `{"message":""}`, wantCode: http.StatusBadRequest, wantErr: constants.ErrCodeInvalidRequest},
		{name: "too long", path: path, userID: alice.ID, body: `{"message":"` + strings.Repeat("é", constants.MaxPostMessageLength+1) + `"}`, wantCode: http.StatusBadRequest, wantErr: constants.ErrCodeMessageTooLong},
		{name: "client cannot set webhook props", path: path, userID: alice.ID, body: `{"message":"hi","props":{"from_webhook":"true"}}`, wantCode: http.StatusBadRequest, wantErr: constants.ErrCodeInvalidRequest},
		{name: "root in other channel", path: path, userID: alice.ID, body: `{"message":"hi","rootId":"post_000000000000000000000000"}`, wantCode: http.StatusBadRequest, wantErr: constants.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, http.MethodPost, "/channels/{channelID}/posts", tt.path, tt.body, tt.userID, handler.Create)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body=%q", rr.Code, tt.wantCode, rr.Body.String())
			}
			if got := decodeError(t, rr).Error.Code; got != tt.wantErr {
				t.Fatalf("error.code = %q, want %q", got, tt.wantErr)
			}
		})
	}

	if len(pub.posts) != 0 {
		t.Fatalf("published %d posts, want 0", len(pub.posts))
	}
}

func TestCreateFromWebhookMarksPost(t *testing.T) {
	store := openTestStore(t)
	alice := store.createUser(t, "alice")
	channel := store.createChannel(t, alice)

	pub := &fakePublisher{}
	handler := NewPostHandler(store.posts, store.users, store.channels, pub)

	body := `{"text":"","username":"<b>ci-bot</b>","attachments":[{"pretext":"Build failed"}]}`
	rr := do(t, http.MethodPost, "/channels/{channelID}/webhook", "/channels/"+channel.ID+"/webhook", body, alice.ID, handler.CreateFromWebhook)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body=%q", rr.Code, rr.Body.String())
	}

	post := pub.last(t).post
	if !post.FromWebhook() {
		t.Fatalf("from_webhook = %q, want true", post.Props.FromWebhook)
	}
	if post.Props.OverrideUsername != "ci-bot" {
		t.Fatalf("override_username = %q, want ci-bot", post.Props.OverrideUsername)
	}
	if len(post.Props.Attachments) != 1 || post.Props.Attachments[0].Pretext != "Build failed" {
		t.Fatalf("attachments = %+v", post.Props.Attachments)
	}
}

func TestParseHistoryQuery(t *testing.T) {
	validID := "post_" + strings.Repeat("ab", constants.IDRandomBytes)

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantBefore string
		wantOK     bool
	}{
		{name: "defaults", query: "", wantLimit: defaultPostHistoryLimit, wantOK: true},
		{name: "custom limit", query: "?limit=10", wantLimit: 10, wantOK: true},
		{name: "max limit", query: "?limit=100", wantLimit: constants.MessageHistoryMaxLimit, wantOK: true},
		{name: "before", query: "?before=" + validID, wantLimit: defaultPostHistoryLimit, wantBefore: validID, wantOK: true},
		{name: "limit zero", query: "?limit=0"},
		{name: "limit too large", query: "?limit=101"},
		{name: "limit not a number", query: "?limit=ten"},
		{name: "before wrong prefix", query: "?before=msg_" + strings.Repeat("ab", constants.IDRandomBytes)},
		{name: "before uppercase hex", query: "?before=post_" + strings.Repeat("AB", constants.IDRandomBytes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/posts"+tt.query, nil)
			limit, before, msg, ok := parseHistoryQuery(req)
			if ok != tt.wantOK {
				t.Fatalf("parseHistoryQuery(%q) ok = %v, want %v (msg %q)", tt.query, ok, tt.wantOK, msg)
			}
			if !ok {
				if msg == "" {
					t.Fatal("expected validation message")
				}
				return
			}
			if limit != tt.wantLimit || before != tt.wantBefore {
				t.Fatalf("parseHistoryQuery(%q) = (%d, %q), want (%d, %q)", tt.query, limit, before, tt.wantLimit, tt.wantBefore)
			}
		})
	}
}

func TestGetHistoryReturnsChannelPosts(t *testing.T) {
	store := openTestStore(t)
	alice := store.createUser(t, "alice")
	channel := store.createChannel(t, alice)

	pub := &fakePublisher{}
	handler := NewPostHandler(store.posts, store.users, store.channels, pub)
	for _, msg := range []string{"one", "two"} {
		rr := do(t, http.MethodPost, "/channels/{channelID}/posts", "/channels/"+channel.ID+"/posts", `{"message":"`+msg+`"}`, alice.ID, handler.Create)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create status = %d, body=%q", rr.Code, rr.Body.String())
		}
	}

	rr := do(t, http.MethodGet, "/channels/{channelID}/posts", "/channels/"+channel.ID+"/posts?limit=10", "", alice.ID, handler.GetHistory)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%q", rr.Code, rr.Body.String())
	}
	var posts []models.Post
	if err := json.Unmarshal(rr.Body.Bytes(), &posts); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
}

func TestCreatePostUploadOnly(t *testing.T) {
	store := openTestStore(t)
	alice := store.createUser(t, "alice")
	channel := store.createChannel(t, alice)

	pub := &fakePublisher{}
	handler := NewPostHandler(store.posts, store.users, store.channels, pub)

	tests := []struct {
		name          string
		body          string
		wantImage     bool
		wantOtherFile bool
	}{
		{name: "image", body: `{"message":"","image":true}`, wantImage: true},
		{name: "other file", body: `{"otherFile":true}`, wantOtherFile: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, http.MethodPost, "/channels/{channelID}/posts", "/channels/"+channel.ID+"/posts", tt.body, alice.ID, handler.Create)
			if rr.Code != http.StatusCreated {
				t.Fatalf("status = %d, want %d, body=%q", rr.Code, http.StatusCreated, rr.Body.String())
			}

			got := pub.last(t)
			if got.post.Message != "" {
				t.Fatalf("message = %q, want empty", got.post.Message)
			}
			if got.props.Image != tt.wantImage || got.props.OtherFile != tt.wantOtherFile {
				t.Fatalf("image/otherFile = %v/%v, want %v/%v", got.props.Image, got.props.OtherFile, tt.wantImage, tt.wantOtherFile)
			}
		})
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ci-bot", want: "ci-bot"},
		{in: "<b>ci-bot</b>", want: "ci-bot"},
		{in: "  Build & Deploy ", want: "Build & Deploy"},
		{in: `<img src=x onerror="alert(1)">`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizeDisplayName(tt.in); got != tt.want {
				t.Fatalf("sanitizeDisplayName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
