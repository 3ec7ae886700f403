package api

import (
	"log/slog"
	"net/http"

	"lobbynotify/internal/constants"
	"lobbynotify/internal/db"
	"lobbynotify/internal/models"
)

type PreferenceHandler struct {
	preferences *db.PreferenceRepository
}

func NewPreferenceHandler(preferences *db.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

// GET /api/v1/users/me/preferences
func (h *PreferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.preferences.ListByUser(GetUserID(r))
	if err != nil {
		slog.Error("error listing preferences", "component", "api", "error", err)
		internalError(w)
		return
	}
	if prefs == nil {
		prefs = []models.Preference{}
	}
	writeJSON(w, http.StatusOK, prefs)
}

type SavePreferencesRequest struct {
	Preferences []models.Preference `json:"preferences" validate:"required,min=1,max=100,dive"`
}

// PUT /api/v1/users/me/preferences
func (h *PreferenceHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	var req SavePreferencesRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	for i := range req.Preferences {
		p := &req.Preferences[i]
		if p.UserID != "" && p.UserID != userID {
			forbidden(w, constants.ErrCodeForbidden, "Cannot change another user's preferences")
			return
		}
		p.UserID = userID
		if msg := checkKnownPreference(*p); msg != "" {
			badRequest(w, msg)
			return
		}
	}

	if err := h.preferences.Save(req.Preferences); err != nil {
		slog.Error("error saving preferences", "component", "api", "user_id", userID, "error", err)
		internalError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkKnownPreference validates the values of preferences the server reads.
func checkKnownPreference(p models.Preference) string {
	if p.Category != models.PreferenceCategoryDisplay {
		return ""
	}
	switch p.Name {
	case models.PreferenceNameTeammateDisplay:
		switch p.Value {
		case models.ShowUsername, models.ShowNicknameFullName, models.ShowFullName:
			return ""
		}
		return "name_format must be username, nickname_full_name or full_name"
	case models.PreferenceNameCollapsedThreads:
		if p.Value == "on" || p.Value == "off" {
			return ""
		}
		return "collapsed_reply_threads must be on or off"
	}
	return ""
}
