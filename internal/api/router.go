package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"lobbynotify/internal/auth"
	"lobbynotify/internal/config"
	"lobbynotify/internal/db"
	"lobbynotify/internal/ws"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Deps are the collaborators the HTTP server is built from.
type Deps struct {
	Config      *config.Config
	Database    *db.DB
	JWT         *auth.JWTService
	Hub         *ws.Hub
	Users       *db.UserRepository
	Teams       *db.TeamRepository
	Channels    *db.ChannelRepository
	Posts       *db.PostRepository
	Preferences *db.PreferenceRepository
}

type Server struct {
	router *chi.Mux
	hub    *ws.Hub
}

func NewServer(d Deps) *Server {
	userHandler := NewUserHandler(d.Users)
	preferenceHandler := NewPreferenceHandler(d.Preferences)
	channelHandler := NewChannelHandler(d.Teams, d.Channels, d.Users, d.Posts, d.Hub)
	postHandler := NewPostHandler(d.Posts, d.Users, d.Channels, d.Hub)
	serverInfoHandler := NewServerInfoHandler(d.Config.Server.Name)
	wsHandler := NewWebSocketHandler(d.Hub, d.Config.WebSocket)
	healthHandler := NewHealthHandler(d.Database)

	authMiddleware := NewAuthMiddleware(d.JWT)

	postLimiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(userKey),
		httprate.WithLimitHandler(tooManyRequests),
	)

	r := chi.NewRouter()
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware(d.Config.WebSocket.AllowedOrigins))
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(maxBodySizeMiddleware(maxRequestBodyBytes))
		r.Get("/server/info", serverInfoHandler.GetInfo)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.GetAll)
				r.Get("/me", userHandler.GetMe)
				r.Patch("/me", userHandler.UpdateMe)
				r.Put("/me/notify", userHandler.UpdateNotifyProps)
				r.Get("/me/preferences", preferenceHandler.List)
				r.Put("/me/preferences", preferenceHandler.Save)
				r.Get("/{userID}", userHandler.GetByID)
			})

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", channelHandler.ListTeams)
				r.Post("/", channelHandler.CreateTeam)
				r.Get("/{teamID}/channels", channelHandler.ListChannels)
				r.Post("/{teamID}/channels", channelHandler.CreateChannel)
			})

			r.Route("/channels/{channelID}", func(r chi.Router) {
				r.Post("/join", channelHandler.Join)
				r.Get("/members", channelHandler.ListMembers)
				r.Post("/members", channelHandler.AddMember)
				r.Put("/members/me/notify", channelHandler.UpdateMemberNotifyProps)
				r.Post("/members/me/mute", channelHandler.Mute)
				r.Delete("/members/me/mute", channelHandler.Unmute)

				r.Get("/posts", postHandler.GetHistory)
				r.With(postLimiter).Post("/posts", postHandler.Create)
				r.With(postLimiter).Post("/webhook", postHandler.CreateFromWebhook)
			})
		})
	})

	r.With(httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(tooManyRequests),
	)).Get("/ws", wsHandler.ServeWS)

	return &Server{
		router: r,
		hub:    d.Hub,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Shutdown() {
	s.hub.Shutdown()
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"component", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}
