package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lobbynotify/internal/db"
	"lobbynotify/internal/models"
)

type ChannelHandler struct {
	teams    *db.TeamRepository
	channels *db.ChannelRepository
	users    *db.UserRepository
	posts    *postService
}

func NewChannelHandler(teams *db.TeamRepository, channels *db.ChannelRepository, users *db.UserRepository, posts *db.PostRepository, publisher PostPublisher) *ChannelHandler {
	return &ChannelHandler{
		teams:    teams,
		channels: channels,
		users:    users,
		posts:    &postService{posts: posts, users: users, channels: channels, publisher: publisher},
	}
}

// GET /api/v1/teams
func (h *ChannelHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.List()
	if err != nil {
		slog.Error("error listing teams", "component", "api", "error", err)
		internalError(w)
		return
	}
	if teams == nil {
		teams = []*models.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=64,slug"`
	DisplayName string `json:"displayName" validate:"required,max=64"`
}

// POST /api/v1/teams
func (h *ChannelHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	team, err := h.teams.Create(req.Name, req.DisplayName)
	if errors.Is(err, db.ErrDuplicate) {
		conflict(w, "Team name already taken")
		return
	}
	if err != nil {
		slog.Error("error creating team", "component", "api", "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, team)
}

// GET /api/v1/teams/{teamID}/channels
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	team, ok := h.findTeam(w, r)
	if !ok {
		return
	}

	channels, err := h.channels.ListByTeam(team.ID)
	if err != nil {
		slog.Error("error listing channels", "component", "api", "team_id", team.ID, "error", err)
		internalError(w)
		return
	}
	if channels == nil {
		channels = []*models.Channel{}
	}
	writeJSON(w, http.StatusOK, channels)
}

type CreateChannelRequest struct {
	Name        string `json:"name" validate:"required,max=64,slug"`
	DisplayName string `json:"displayName" validate:"required,max=64"`
	Type        string `json:"type" validate:"omitempty,oneof=O P"`
}

// POST /api/v1/teams/{teamID}/channels
//
// The creator becomes the first member.
func (h *ChannelHandler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	team, ok := h.findTeam(w, r)
	if !ok {
		return
	}

	var req CreateChannelRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Type == "" {
		req.Type = models.ChannelTypeOpen
	}

	channel, err := h.channels.Create(team.ID, req.Name, req.DisplayName, req.Type)
	if errors.Is(err, db.ErrDuplicate) {
		conflict(w, "Channel name already taken")
		return
	}
	if err != nil {
		slog.Error("error creating channel", "component", "api", "team_id", team.ID, "error", err)
		internalError(w)
		return
	}

	if _, err := h.channels.AddMember(channel.ID, GetUserID(r)); err != nil {
		slog.Error("error adding channel creator", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, channel)
}

func (h *ChannelHandler) findTeam(w http.ResponseWriter, r *http.Request) (*models.Team, bool) {
	teamID := chi.URLParam(r, "teamID")
	team, err := h.teams.FindByID(teamID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Team not found")
		return nil, false
	}
	if err != nil {
		slog.Error("error finding team", "component", "api", "team_id", teamID, "error", err)
		internalError(w)
		return nil, false
	}
	return team, true
}

// POST /api/v1/channels/{channelID}/join
//
// Only open channels can be joined without an invitation.
func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	channel, err := h.channels.FindByID(channelID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && channel.Type != models.ChannelTypeOpen) {
		notFound(w, "Channel not found")
		return
	}
	if err != nil {
		slog.Error("error finding channel", "component", "api", "channel_id", channelID, "error", err)
		internalError(w)
		return
	}

	userID := GetUserID(r)
	member, err := h.channels.AddMember(channel.ID, userID)
	if errors.Is(err, db.ErrDuplicate) {
		conflict(w, "Already a member of this channel")
		return
	}
	if err != nil {
		slog.Error("error joining channel", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	if _, err := h.posts.publish(r.Context(), channel, publishInput{
		params: db.CreatePostParams{UserID: userID, Type: models.PostTypeJoinChannel},
	}); err != nil {
		slog.Error("error posting join message", "component", "api", "channel_id", channel.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, member)
}

type AddMemberRequest struct {
	UserID string `json:"userId" validate:"required,max=64"`
}

// POST /api/v1/channels/{channelID}/members
func (h *ChannelHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	channel, ok := memberChannel(w, r, h.channels)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if _, err := h.users.FindByID(req.UserID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "User not found")
			return
		}
		slog.Error("error finding user", "component", "api", "user_id", req.UserID, "error", err)
		internalError(w)
		return
	}

	member, err := h.channels.AddMember(channel.ID, req.UserID)
	if errors.Is(err, db.ErrDuplicate) {
		conflict(w, "User is already a member of this channel")
		return
	}
	if err != nil {
		slog.Error("error adding channel member", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	if _, err := h.posts.publish(r.Context(), channel, publishInput{
		params: db.CreatePostParams{
			UserID: GetUserID(r),
			Type:   models.PostTypeAddToChannel,
			Props:  models.PostProps{AddedUserID: req.UserID},
		},
	}); err != nil {
		slog.Error("error posting add member message", "component", "api", "channel_id", channel.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, member)
}

// GET /api/v1/channels/{channelID}/members
func (h *ChannelHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	channel, ok := memberChannel(w, r, h.channels)
	if !ok {
		return
	}

	members, err := h.channels.ListMembers(channel.ID)
	if err != nil {
		slog.Error("error listing channel members", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}
	if members == nil {
		members = []*models.ChannelMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

type UpdateMemberNotifyPropsRequest struct {
	Desktop                  *string `json:"desktop" validate:"omitempty,oneof=default all mention none"`
	DesktopNotificationSound *string `json:"desktopNotificationSound" validate:"omitempty,max=64"`
	MarkUnread               *string `json:"markUnread" validate:"omitempty,oneof=all mention"`
}

// PUT /api/v1/channels/{channelID}/members/me/notify
//
// Omitted fields keep their current value.
func (h *ChannelHandler) UpdateMemberNotifyProps(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberNotifyPropsRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	h.updateOwnMember(w, r, func(props *models.ChannelNotifyProps) {
		if req.Desktop != nil {
			props.Desktop = *req.Desktop
		}
		if req.DesktopNotificationSound != nil {
			props.DesktopNotificationSound = *req.DesktopNotificationSound
		}
		if req.MarkUnread != nil {
			props.MarkUnread = *req.MarkUnread
		}
	})
}

// POST /api/v1/channels/{channelID}/members/me/mute
func (h *ChannelHandler) Mute(w http.ResponseWriter, r *http.Request) {
	h.updateOwnMember(w, r, func(props *models.ChannelNotifyProps) {
		props.MarkUnread = models.MarkUnreadMention
	})
}

// DELETE /api/v1/channels/{channelID}/members/me/mute
func (h *ChannelHandler) Unmute(w http.ResponseWriter, r *http.Request) {
	h.updateOwnMember(w, r, func(props *models.ChannelNotifyProps) {
		props.MarkUnread = models.MarkUnreadAll
	})
}

func (h *ChannelHandler) updateOwnMember(w http.ResponseWriter, r *http.Request, apply func(*models.ChannelNotifyProps)) {
	channel, ok := memberChannel(w, r, h.channels)
	if !ok {
		return
	}

	userID := GetUserID(r)
	member, err := h.channels.FindMember(channel.ID, userID)
	if err != nil {
		slog.Error("error finding channel member", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	apply(&member.NotifyProps)
	if err := h.channels.UpdateMemberNotifyProps(channel.ID, userID, member.NotifyProps); err != nil {
		slog.Error("error updating channel member", "component", "api", "channel_id", channel.ID, "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, member)
}
