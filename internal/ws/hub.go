package ws

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"lobbynotify/internal/auth"
	"lobbynotify/internal/config"
	"lobbynotify/internal/constants"
	"lobbynotify/internal/db"
	"lobbynotify/internal/models"
	"lobbynotify/internal/notify"
)

const (
	// maxDroppedMessagesBeforeDisconnect is the threshold for disconnecting slow clients
	maxDroppedMessagesBeforeDisconnect = 100

	collapsedThreadsOn = "on"
)

// registerRequest is used for synchronous registration with a callback
type registerRequest struct {
	client *Client
	status string
	done   chan struct{}
}

// Hub tracks identified sessions. A user may hold several sessions at
// once (say a browser tab and the desktop app); presence is per user and
// notifications are per session.
type Hub struct {
	clients      map[*Client]bool
	userClients  map[string]map[*Client]struct{}
	statuses     map[string]string
	broadcast    chan *WSMessage
	registerSync chan registerRequest
	unregister   chan *Client
	shutdown     chan struct{}

	jwtService  *auth.JWTService
	users       *db.UserRepository
	channels    *db.ChannelRepository
	preferences *db.PreferenceRepository
	notifier    *notify.Notifier
	clicks      *ClickRegistry
	locales     DefaultLocaleSetter

	pipelines sync.WaitGroup
	closing   bool // set by Shutdown, guarded by mu
	sequence  int64
	mu        sync.RWMutex
}

type HubConfig struct {
	JWT         *auth.JWTService
	Users       *db.UserRepository
	Channels    *db.ChannelRepository
	Preferences *db.PreferenceRepository
	Composer    *notify.Composer
	Router      *notify.Router
	Clicks      *ClickRegistry
	Locales     DefaultLocaleSetter
}

// DefaultLocaleSetter changes the locale used for recipients without one.
type DefaultLocaleSetter interface {
	SetDefaultLocale(locale string)
}

func NewHub(cfg HubConfig) *Hub {
	h := &Hub{
		clients:      make(map[*Client]bool),
		userClients:  make(map[string]map[*Client]struct{}),
		statuses:     make(map[string]string),
		broadcast:    make(chan *WSMessage, constants.WSBroadcastBufferSize),
		registerSync: make(chan registerRequest),
		unregister:   make(chan *Client),
		shutdown:     make(chan struct{}),
		jwtService:   cfg.JWT,
		users:        cfg.Users,
		channels:     cfg.Channels,
		preferences:  cfg.Preferences,
		clicks:       cfg.Clicks,
		locales:      cfg.Locales,
	}
	h.notifier = notify.NewNotifier(cfg.Composer, cfg.Router, profileSource{hub: h}, slog.Default())
	return h
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			h.mu.Lock()
			for client := range h.clients {
				client.CloseSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			slog.Info("shutdown complete", "component", "hub")
			return

		case req := <-h.registerSync:
			userID := req.client.user.ID

			h.mu.Lock()
			h.clients[req.client] = true
			sessions, online := h.userClients[userID]
			if !online {
				sessions = make(map[*Client]struct{})
				h.userClients[userID] = sessions
				h.statuses[userID] = req.status
			}
			sessions[req.client] = struct{}{}
			h.mu.Unlock()

			close(req.done)

			if !online {
				h.broadcastPresenceUpdate(userID, req.status)
			}

		case client := <-h.unregister:
			var (
				userID      string
				wentOffline bool
			)

			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if client.user != nil {
					userID = client.user.ID
					if sessions, ok := h.userClients[userID]; ok {
						delete(sessions, client)
						if len(sessions) == 0 {
							delete(h.userClients, userID)
							delete(h.statuses, userID)
							wentOffline = true
						}
					}
				}
			}
			h.mu.Unlock()

			client.CloseSend()
			if h.clicks != nil && client.sessionID != "" {
				h.clicks.DropSession(client.sessionID)
			}

			if wentOffline {
				h.broadcastPresenceUpdate(userID, models.StatusOffline)
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				h.sendToClientLocked(client, message)
			}
			h.mu.RUnlock()
		}
	}
}

// Caller must hold at least a read lock on h.mu.
func (h *Hub) sendToClientLocked(client *Client, msg *WSMessage) {
	if !client.IsIdentified() {
		return
	}
	err := client.trySend(msg)
	if !errors.Is(err, errSendBufferFull) {
		return
	}

	dropped := atomic.LoadInt64(&client.DroppedMessages)
	if dropped%10 == 1 {
		slog.Warn("dropped messages for slow client", "component", "hub", "dropped", dropped, "user_id", client.getUserID())
	}

	// Disconnect clients that fall too far behind
	if dropped >= maxDroppedMessagesBeforeDisconnect {
		slog.Warn("disconnecting slow client", "component", "hub", "user_id", client.getUserID(), "dropped", dropped)
		// Close will be handled by the client's pumps
		client.Close()
	}
}

func (h *Hub) nextSequence() int64 {
	return atomic.AddInt64(&h.sequence, 1)
}

// BroadcastDispatch sends a DISPATCH message to all clients with sequence number
func (h *Hub) BroadcastDispatch(eventType string, data any) {
	seq := h.nextSequence()
	h.broadcast <- &WSMessage{
		Op:   OpDispatch,
		Type: eventType,
		Data: data,
		Seq:  &seq,
	}
}

// SendDispatchToUser sends a DISPATCH message to every session of a user
func (h *Hub) SendDispatchToUser(userID string, eventType string, data any) {
	seq := h.nextSequence()
	msg := &WSMessage{
		Op:   OpDispatch,
		Type: eventType,
		Data: data,
		Seq:  &seq,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.userClients[userID] {
		h.sendToClientLocked(client, msg)
	}
}

func (h *Hub) broadcastPresenceUpdate(userID string, status string) {
	h.BroadcastDispatch(EventPresenceUpdate, PresenceUpdatePayload{
		UserID: userID,
		Status: status,
	})
	slog.Debug("presence changed", "component", "hub", "user_id", userID, "status", status)
}

// SetStatus changes the presence of an online user.
func (h *Hub) SetStatus(userID, status string) {
	h.mu.Lock()
	_, online := h.userClients[userID]
	if online {
		h.statuses[userID] = status
	}
	h.mu.Unlock()

	if online {
		h.broadcastPresenceUpdate(userID, status)
	}
}

// UserStatus returns the presence of userID; offline when not connected.
func (h *Hub) UserStatus(userID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if status, ok := h.statuses[userID]; ok {
		return status
	}
	return models.StatusOffline
}

func (h *Hub) OnlinePresences() []PresenceUpdatePayload {
	h.mu.RLock()
	presences := make([]PresenceUpdatePayload, 0, len(h.statuses))
	for userID, status := range h.statuses {
		presences = append(presences, PresenceUpdatePayload{UserID: userID, Status: status})
	}
	h.mu.RUnlock()

	sort.Slice(presences, func(i, j int) bool { return presences[i].UserID < presences[j].UserID })
	return presences
}

func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.userClients[userID]
	return ok
}

func (h *Hub) sessionsFor(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessions := make([]*Client, 0, len(h.userClients[userID]))
	for client := range h.userClients[userID] {
		if client.IsIdentified() {
			sessions = append(sessions, client)
		}
	}
	return sessions
}

// ApplyNotificationsConfig updates the runtime notification settings.
func (h *Hub) ApplyNotificationsConfig(cfg config.NotificationsConfig) {
	h.notifier.SetUsernameOverride(cfg.EnablePostUsernameOverride)
	if h.locales != nil && cfg.DefaultLocale != "" {
		h.locales.SetDefaultLocale(cfg.DefaultLocale)
	}
	if h.clicks == nil {
		return
	}
	h.clicks.SetTTL(cfg.ClickTTL)
	if err := h.clicks.Schedule(cfg.CleanupSchedule); err != nil {
		slog.Error("invalid cleanup schedule, keeping previous", "component", "hub", "error", err)
	}
}

// Drain waits for running notification pipelines to finish. Call it after
// Shutdown so no new pipelines start while waiting.
func (h *Hub) Drain() {
	h.pipelines.Wait()
}

// Shutdown stops the hub. Posts published afterwards start no pipelines.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return
	}
	h.closing = true
	h.mu.Unlock()
	close(h.shutdown)
}

// startPipeline reserves a slot for a notification pipeline. It reports
// false once Shutdown has begun.
func (h *Hub) startPipeline() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closing {
		return false
	}
	h.pipelines.Add(1)
	return true
}

// profileSource serves author profiles from connected sessions first.
type profileSource struct {
	hub *Hub
}

func (p profileSource) KnownUser(id string) *models.User {
	p.hub.mu.RLock()
	defer p.hub.mu.RUnlock()
	for client := range p.hub.userClients[id] {
		return client.user
	}
	return nil
}

func (p profileSource) FetchProfiles(ctx context.Context, ids []string) ([]*models.User, error) {
	return p.hub.users.GetProfilesByIDs(ctx, ids)
}
