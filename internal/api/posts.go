package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"lobbynotify/internal/constants"
	"lobbynotify/internal/db"
	"lobbynotify/internal/models"
	"lobbynotify/internal/notify"
)

const defaultPostHistoryLimit = 50

// channelWideMentions notify every member of the channel.
var channelWideMentions = map[string]bool{"channel": true, "all": true, "here": true}

var displayNamePolicy = bluemonday.StrictPolicy()

var mentionPattern = regexp.MustCompile(`(?:^|[^\w@])@([a-zA-Z0-9][a-zA-Z0-9._-]*)`)

// PostPublisher delivers a stored post to connected sessions.
type PostPublisher interface {
	PublishPost(ctx context.Context, post *models.Post, channel *models.Channel, props notify.MessageProps)
}

// postService stores posts and hands them to the publisher.
type postService struct {
	posts     *db.PostRepository
	users     *db.UserRepository
	channels  *db.ChannelRepository
	publisher PostPublisher
}

type publishInput struct {
	params    db.CreatePostParams
	mentions  []string // user IDs named explicitly by the client
	image     bool
	otherFile bool
}

func (s *postService) publish(ctx context.Context, channel *models.Channel, in publishInput) (*models.Post, error) {
	mentions, err := s.resolveMentions(channel.ID, in.params.Message, in.mentions)
	if err != nil {
		return nil, err
	}

	in.params.ChannelID = channel.ID
	post, err := s.posts.Create(in.params)
	if err != nil {
		return nil, err
	}

	serialized, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	s.publisher.PublishPost(ctx, post, channel, notify.MessageProps{
		ChannelDisplayName: channel.DisplayName,
		ChannelName:        channel.Name,
		ChannelType:        channel.Type,
		TeamID:             channel.TeamID,
		RootID:             post.RootID,
		Mentions:           mentions,
		Image:              in.image,
		OtherFile:          in.otherFile,
		Post:               string(serialized),
	})
	return post, nil
}

// resolveMentions turns @username and channel-wide mentions in message,
// plus explicit IDs, into the set of mentioned channel members.
func (s *postService) resolveMentions(channelID, message string, explicit []string) ([]string, error) {
	members, err := s.channels.ListMembers(channelID)
	if err != nil {
		return nil, fmt.Errorf("listing channel members: %w", err)
	}
	isMember := make(map[string]bool, len(members))
	for _, m := range members {
		isMember[m.UserID] = true
	}

	names, everyone := parseMentions(message)
	ids := append([]string{}, explicit...)
	if everyone {
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
	}
	if len(names) > 0 {
		named, err := s.users.FindIDsByUsernames(names)
		if err != nil {
			return nil, fmt.Errorf("resolving mentions: %w", err)
		}
		ids = append(ids, named...)
	}

	seen := make(map[string]bool, len(ids))
	mentions := make([]string, 0, len(ids))
	for _, id := range ids {
		if isMember[id] && !seen[id] {
			seen[id] = true
			mentions = append(mentions, id)
		}
	}
	return mentions, nil
}

// parseMentions returns the distinct usernames mentioned in message and
// whether it mentions the whole channel.
func parseMentions(message string) (usernames []string, everyone bool) {
	seen := make(map[string]bool)
	for _, m := range mentionPattern.FindAllStringSubmatch(message, -1) {
		name := strings.ToLower(strings.TrimRight(m[1], ".-_"))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if channelWideMentions[name] {
			everyone = true
			continue
		}
		usernames = append(usernames, name)
	}
	return usernames, everyone
}

type PostHandler struct {
	service  *postService
	channels *db.ChannelRepository
	posts    *db.PostRepository
}

func NewPostHandler(posts *db.PostRepository, users *db.UserRepository, channels *db.ChannelRepository, publisher PostPublisher) *PostHandler {
	return &PostHandler{
		service:  &postService{posts: posts, users: users, channels: channels, publisher: publisher},
		channels: channels,
		posts:    posts,
	}
}

// memberChannel loads the channel in the URL and checks the caller belongs to it.
func memberChannel(w http.ResponseWriter, r *http.Request, channels *db.ChannelRepository) (*models.Channel, bool) {
	channelID := chi.URLParam(r, "channelID")
	channel, err := channels.FindByID(channelID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Channel not found")
		return nil, false
	}
	if err != nil {
		slog.Error("error finding channel", "component", "api", "channel_id", channelID, "error", err)
		internalError(w)
		return nil, false
	}

	if _, err := channels.FindMember(channel.ID, GetUserID(r)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			forbidden(w, constants.ErrCodeNotChannelMember, "Not a member of this channel")
			return nil, false
		}
		slog.Error("error finding channel member", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return nil, false
	}
	return channel, true
}

type CreatePostRequest struct {
	Message     string              `json:"message" validate:"required_without_all=Attachments Image OtherFile"`
	RootID      string              `json:"rootId" validate:"omitempty,max=64"`
	Mentions    []string            `json:"mentions" validate:"max=256"`
	Attachments []models.Attachment `json:"attachments" validate:"max=20"`
	Image       bool                `json:"image"`
	OtherFile   bool                `json:"otherFile"`
}

// POST /api/v1/channels/{channelID}/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	channel, ok := memberChannel(w, r, h.channels)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if utf8.RuneCountInString(req.Message) > constants.MaxPostMessageLength {
		writeError(w, http.StatusBadRequest, constants.ErrCodeMessageTooLong, "Message exceeds maximum length")
		return
	}
	if req.RootID != "" {
		root, err := h.posts.FindByID(req.RootID)
		if err != nil || root.ChannelID != channel.ID {
			badRequest(w, "rootId must reference a post in this channel")
			return
		}
	}

	post, err := h.service.publish(r.Context(), channel, publishInput{
		params: db.CreatePostParams{
			UserID:  GetUserID(r),
			RootID:  req.RootID,
			Message: req.Message,
			Props:   models.PostProps{Attachments: req.Attachments},
		},
		mentions:  req.Mentions,
		image:     req.Image,
		otherFile: req.OtherFile,
	})
	if err != nil {
		slog.Error("error creating post", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

type WebhookPostRequest struct {
	Text        string              `json:"text" validate:"required_without=Attachments,max=4000"`
	Username    string              `json:"username" validate:"max=64"`
	Attachments []models.Attachment `json:"attachments" validate:"max=20"`
}

// POST /api/v1/channels/{channelID}/webhook
//
// Incoming integration posts. They are authored by the token owner but
// flagged as coming from a webhook, so the owner is notified too.
func (h *PostHandler) CreateFromWebhook(w http.ResponseWriter, r *http.Request) {
	channel, ok := memberChannel(w, r, h.channels)
	if !ok {
		return
	}

	var req WebhookPostRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	post, err := h.service.publish(r.Context(), channel, publishInput{
		params: db.CreatePostParams{
			UserID:  GetUserID(r),
			Message: req.Text,
			Props: models.PostProps{
				FromWebhook:      "true",
				OverrideUsername: sanitizeDisplayName(req.Username),
				Attachments:      req.Attachments,
			},
		},
	})
	if err != nil {
		slog.Error("error creating webhook post", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// sanitizeDisplayName drops markup from a name shown as a post author.
func sanitizeDisplayName(name string) string {
	return strings.TrimSpace(html.UnescapeString(displayNamePolicy.Sanitize(name)))
}

// GET /api/v1/channels/{channelID}/posts
func (h *PostHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	channel, ok := memberChannel(w, r, h.channels)
	if !ok {
		return
	}

	limit, beforeID, validationMessage, ok := parseHistoryQuery(r)
	if !ok {
		badRequest(w, validationMessage)
		return
	}

	posts, err := h.posts.GetHistory(channel.ID, beforeID, limit)
	if err != nil {
		slog.Error("error loading post history", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func parseHistoryQuery(r *http.Request) (int, string, string, bool) {
	limitStr := strings.TrimSpace(r.URL.Query().Get("limit"))
	beforeID := strings.TrimSpace(r.URL.Query().Get("before"))

	limit := defaultPostHistoryLimit
	if limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, "", "Query parameter 'limit' must be an integer", false
		}
		if parsedLimit <= 0 || parsedLimit > constants.MessageHistoryMaxLimit {
			return 0, "", fmt.Sprintf("Query parameter 'limit' must be between 1 and %d", constants.MessageHistoryMaxLimit), false
		}
		limit = parsedLimit
	}

	if beforeID != "" && !isValidPostID(beforeID) {
		return 0, "", "Query parameter 'before' must be a valid post ID", false
	}

	return limit, beforeID, "", true
}

func isValidPostID(id string) bool {
	hexPart, ok := strings.CutPrefix(id, "post_")
	if !ok || len(hexPart) != constants.IDRandomBytes*2 {
		return false
	}

	for _, r := range hexPart {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}

	return true
}
