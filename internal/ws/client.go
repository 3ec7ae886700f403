package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"lobbynotify/internal/constants"
	"lobbynotify/internal/models"
	"lobbynotify/internal/notify"
)

// ClientState represents the lifecycle state of a WebSocket client
type ClientState int32

const (
	ClientStateConnected  ClientState = iota // WS connected, awaiting IDENTIFY
	ClientStateIdentified                    // Authenticated, processing commands
	ClientStateClosing                       // Shutdown initiated
	ClientStateClosed                        // Terminal
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 15 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 16384

	// Timeout for hub registration
	registerTimeout = 5 * time.Second
)

var errSendBufferFull = errors.New("send buffer full")

// Client represents a single WebSocket connection
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan *WSMessage
	sendMu        sync.RWMutex // guards sendClosed against concurrent sends
	sendClosed    bool
	connCloseOnce sync.Once

	state atomic.Int32

	// Populated by IDENTIFY and immutable afterwards.
	user       *models.User
	sessionID  string
	platform   PlatformInfo
	origin     string
	permission atomic.Value // string

	focused    atomic.Bool
	mu         sync.RWMutex // protects openThread
	openThread string

	// DroppedMessages tracks how many messages have been dropped due to full buffer
	DroppedMessages int64

	limiter *rate.Limiter
}

// NewClient creates a new client. origin is the Origin header of the
// upgrade request; companion envelopes are addressed to it.
func NewClient(hub *Hub, conn *websocket.Conn, origin string) *Client {
	c := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan *WSMessage, constants.WSClientSendBufferSize),
		origin:  origin,
		limiter: rate.NewLimiter(rate.Limit(constants.WSCommandsPerSecond), constants.WSCommandBurst),
	}
	c.permission.Store(PermissionDefault)
	c.state.Store(int32(ClientStateConnected))
	return c
}

// Close performs cleanup for the client, ensuring it only happens once
func (c *Client) Close() {
	c.transitionTo(ClientStateClosing)
	c.closeConn()
	c.transitionTo(ClientStateClosed)
}

func (c *Client) closeConn() {
	c.connCloseOnce.Do(func() {
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "component", "hub", "user_id", c.getUserID(), "error", err)
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("malformed websocket message", "component", "hub", "user_id", c.getUserID(), "error", err)
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				slog.Debug("websocket write failed", "component", "hub", "user_id", c.getUserID(), "error", err)
				return
			}

		case <-ticker.C:
			if c.IsClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// getUserID returns the user ID or "unknown" if not set
func (c *Client) getUserID() string {
	if c.user != nil {
		return c.user.ID
	}
	return "unknown"
}

// SendHello sends the HELLO message to initiate the connection
func (c *Client) SendHello() {
	c.trySend(&WSMessage{Op: OpHello, Data: HelloPayload{}})
}

// trySend queues msg without blocking.
func (c *Client) trySend(msg *WSMessage) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.sendClosed || c.IsClosed() {
		return notify.ErrSessionClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		atomic.AddInt64(&c.DroppedMessages, 1)
		return errSendBufferFull
	}
}

// dispatch queues a DISPATCH event for this session only.
func (c *Client) dispatch(eventType string, data any) error {
	msg := &WSMessage{Op: OpDispatch, Type: eventType, Data: data}
	if c.hub != nil {
		seq := c.hub.nextSequence()
		msg.Seq = &seq
	}
	return c.trySend(msg)
}

func (c *Client) sendError(code, message string, retryAfter time.Time) {
	payload := ErrorPayload{Code: code, Message: message}
	if !retryAfter.IsZero() {
		payload.RetryAfter = retryAfter.UnixMilli()
	}
	_ = c.dispatch(EventError, payload)
}

func (c *Client) handleMessage(msg *inboundMessage) {
	if msg.Op != OpDispatch {
		slog.Debug("unknown op code", "component", "hub", "op", msg.Op)
		return
	}

	// IDENTIFY is not throttled so a slow start never locks a client out.
	if msg.Type != CmdIdentify && !c.limiter.Allow() {
		c.sendError(ErrCodeRateLimited, "Sending too fast", time.Now().Add(time.Second/constants.WSCommandsPerSecond))
		return
	}

	c.handleDispatch(msg)
}

// handleDispatch routes DISPATCH messages by their type
func (c *Client) handleDispatch(msg *inboundMessage) {
	switch msg.Type {
	case CmdIdentify:
		c.handleIdentify(msg)
	case CmdPresenceSet:
		c.handlePresenceSet(msg)
	case CmdWindowFocus:
		c.handleWindowFocus(msg)
	case CmdThreadOpen:
		c.handleThreadOpen(msg)
	case CmdThreadClose:
		c.handleThreadClose()
	case CmdNotificationClick:
		c.handleNotificationClick(msg)
	default:
		slog.Debug("unknown dispatch type", "component", "hub", "type", msg.Type)
	}
}

func decodePayload(msg *inboundMessage, v any) bool {
	if len(msg.Data) == 0 {
		return false
	}
	return json.Unmarshal(msg.Data, v) == nil
}

func (c *Client) handleIdentify(msg *inboundMessage) {
	if c.State() != ClientStateConnected {
		return
	}

	var payload IdentifyPayload
	if !decodePayload(msg, &payload) || payload.Token == "" {
		c.sendError(ErrCodeAuthFailed, "Missing token", time.Time{})
		c.Close()
		return
	}

	claims, err := c.hub.jwtService.ValidateAccessToken(payload.Token)
	if err != nil {
		slog.Info("identify rejected", "component", "hub", "error", err)
		c.sendError(ErrCodeAuthFailed, "Invalid token", time.Time{})
		c.Close()
		return
	}

	user, err := c.hub.users.FindByID(claims.UserID)
	if err != nil {
		slog.Info("identify user lookup failed", "component", "hub", "user_id", claims.UserID, "error", err)
		c.sendError(ErrCodeAuthFailed, "User not found", time.Time{})
		c.Close()
		return
	}

	c.user = user
	c.platform = payload.Platform
	c.SetPermission(payload.NotificationPermission)
	c.focused.Store(payload.Focused)
	c.sessionID = uuid.NewString()

	// Transition to identified state
	if !c.transitionTo(ClientStateIdentified) {
		return // Race: already transitioned
	}

	status := models.StatusOnline
	if payload.Presence != nil && models.IsValidStatus(payload.Presence.Status) && payload.Presence.Status != models.StatusOffline {
		status = payload.Presence.Status
	}

	// Register synchronously so the session is visible before READY
	done := make(chan struct{})
	select {
	case c.hub.registerSync <- registerRequest{client: c, status: status, done: done}:
		select {
		case <-done:
		case <-time.After(registerTimeout):
			slog.Warn("registration timeout", "component", "hub", "user_id", c.user.ID)
			return
		}
	case <-time.After(registerTimeout):
		slog.Warn("registration send timeout", "component", "hub", "user_id", c.user.ID)
		return
	}

	c.trySend(&WSMessage{
		Op: OpReady,
		Data: ReadyPayload{
			ProtocolVersion: ProtocolVersion,
			SessionID:       c.sessionID,
			User:            c.user,
			Presences:       c.hub.OnlinePresences(),
		},
	})

	slog.Info("client identified", "component", "hub",
		"user_id", c.user.ID,
		"session_id", c.sessionID,
		"desktop_app", c.platform.DesktopApp,
		"desktop_app_version", c.platform.DesktopAppVersion,
	)
}

func (c *Client) handlePresenceSet(msg *inboundMessage) {
	if !c.IsIdentified() {
		return
	}

	var payload PresenceSetPayload
	if !decodePayload(msg, &payload) || !models.IsValidStatus(payload.Status) {
		c.sendError(ErrCodeInvalid, "Unknown status", time.Time{})
		return
	}

	c.hub.SetStatus(c.user.ID, payload.Status)
}

func (c *Client) handleWindowFocus(msg *inboundMessage) {
	if !c.IsIdentified() {
		return
	}

	var payload WindowFocusSetPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.focused.Store(payload.Focused)
}

func (c *Client) handleThreadOpen(msg *inboundMessage) {
	if !c.IsIdentified() {
		return
	}

	var payload ThreadOpenPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.SetOpenThread(payload.RootID)
}

func (c *Client) handleThreadClose() {
	if !c.IsIdentified() {
		return
	}
	c.SetOpenThread("")
}

func (c *Client) handleNotificationClick(msg *inboundMessage) {
	if !c.IsIdentified() {
		return
	}

	var payload NotificationClickPayload
	if !decodePayload(msg, &payload) || payload.ID == "" {
		return
	}

	onClick, ok := c.hub.clicks.Take(c.sessionID, payload.ID)
	if !ok {
		c.sendError(ErrCodeClickNotFound, "Notification expired", time.Time{})
		return
	}
	if onClick != nil {
		onClick(context.Background())
	}
}

func (c *Client) Focused() bool {
	return c.focused.Load()
}

func (c *Client) OpenThread() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.openThread
}

func (c *Client) SetOpenThread(rootID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openThread = rootID
}

func (c *Client) Permission() string {
	p, _ := c.permission.Load().(string)
	return p
}

func (c *Client) SetPermission(p string) {
	switch p {
	case PermissionGranted, PermissionDenied, PermissionUnsupported:
	default:
		p = PermissionDefault
	}
	c.permission.Store(p)
}

// State returns the current client state
func (c *Client) State() ClientState {
	return ClientState(c.state.Load())
}

// IsIdentified returns true if the client is in the identified state
func (c *Client) IsIdentified() bool {
	return c.State() == ClientStateIdentified
}

// IsClosed returns true if the client is closing or closed
func (c *Client) IsClosed() bool {
	state := c.State()
	return state == ClientStateClosing || state == ClientStateClosed
}

// isValidClientTransition checks if a state transition is valid
func isValidClientTransition(from, to ClientState) bool {
	switch from {
	case ClientStateConnected:
		return to == ClientStateIdentified || to == ClientStateClosing
	case ClientStateIdentified:
		return to == ClientStateClosing
	case ClientStateClosing:
		return to == ClientStateClosed
	case ClientStateClosed:
		return false
	}
	return false
}

// transitionTo atomically transitions to a new state if valid
func (c *Client) transitionTo(newState ClientState) bool {
	for {
		current := ClientState(c.state.Load())
		if !isValidClientTransition(current, newState) {
			return false
		}
		if c.state.CompareAndSwap(int32(current), int32(newState)) {
			return true
		}
	}
}

// CloseSend closes the send channel (called by hub during cleanup)
func (c *Client) CloseSend() {
	c.sendMu.Lock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
	c.sendMu.Unlock()

	c.Close()
}
