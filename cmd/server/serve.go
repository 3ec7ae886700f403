package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lobbynotify/internal/api"
	"lobbynotify/internal/auth"
	"lobbynotify/internal/chanurl"
	"lobbynotify/internal/config"
	"lobbynotify/internal/db"
	"lobbynotify/internal/i18n"
	"lobbynotify/internal/markdown"
	"lobbynotify/internal/notify"
	"lobbynotify/internal/ws"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	slog.Info("starting server", "name", cfg.Server.Name, "database", cfg.Database.Path)

	users := db.NewUserRepository(database)
	teams := db.NewTeamRepository(database)
	channels := db.NewChannelRepository(database)
	posts := db.NewPostRepository(database)
	preferences := db.NewPreferenceRepository(database)

	bundle, err := i18n.NewBundle(cfg.Notifications.DefaultLocale)
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	clicks := ws.NewClickRegistry(cfg.Notifications.ClickTTL)

	hub := ws.NewHub(ws.HubConfig{
		JWT:         jwtService,
		Users:       users,
		Channels:    channels,
		Preferences: preferences,
		Composer:    notify.NewComposer(bundle, chanurl.NewBuilder(teams), markdown.Strip),
		Router:      notify.NewRouter(notify.SlogErrorLogger{Logger: slog.Default().With("component", "notify")}),
		Clicks:      clicks,
		Locales:     bundle,
	})
	hub.ApplyNotificationsConfig(cfg.Notifications)
	go hub.Run()

	clicks.Start()
	defer clicks.Stop()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := config.NewWatcher(configPath, cfg.Notifications, hub.ApplyNotificationsConfig)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			slog.Error("config watcher stopped", "component", "config", "error", err)
		}
	}()

	server := api.NewServer(api.Deps{
		Config:      cfg,
		Database:    database,
		JWT:         jwtService,
		Hub:         hub,
		Users:       users,
		Teams:       teams,
		Channels:    channels,
		Posts:       posts,
		Preferences: preferences,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", httpServer.Addr, "base_url", cfg.Server.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	server.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	hub.Drain()

	slog.Info("server stopped")
	return nil
}
