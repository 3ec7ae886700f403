package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lobbynotify/internal/db"
	"lobbynotify/internal/models"
)

type UserHandler struct {
	users *db.UserRepository
}

func NewUserHandler(users *db.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/v1/users
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll()
	if err != nil {
		slog.Error("error listing users", "component", "api", "error", err)
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, GetUserID(r))
}

// GET /api/v1/users/{userID}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, chi.URLParam(r, "userID"))
}

func (h *UserHandler) writeUser(w http.ResponseWriter, userID string) {
	user, err := h.users.FindByID(userID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error finding user", "component", "api", "user_id", userID, "error", err)
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName" validate:"omitempty,max=64"`
	Nickname  *string `json:"nickname" validate:"omitempty,max=64"`
	Locale    *string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}

// PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	var req UpdateUserRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	err := h.users.UpdateProfile(userID, db.UpdateProfileParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Nickname:  req.Nickname,
		Locale:    req.Locale,
	})
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error updating user", "component", "api", "user_id", userID, "error", err)
		internalError(w)
		return
	}

	h.writeUser(w, userID)
}

type UpdateNotifyPropsRequest struct {
	Desktop                  string `json:"desktop" validate:"required,oneof=all mention none"`
	DesktopSound             *bool  `json:"desktopSound" validate:"required"`
	DesktopNotificationSound string `json:"desktopNotificationSound" validate:"max=64"`
}

// PUT /api/v1/users/me/notify
func (h *UserHandler) UpdateNotifyProps(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	var req UpdateNotifyPropsRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	err := h.users.UpdateNotifyProps(userID, models.UserNotifyProps{
		Desktop:                  req.Desktop,
		DesktopSound:             *req.DesktopSound,
		DesktopNotificationSound: req.DesktopNotificationSound,
	})
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error updating notify props", "component", "api", "user_id", userID, "error", err)
		internalError(w)
		return
	}

	h.writeUser(w, userID)
}
