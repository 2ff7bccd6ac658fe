// Package main is the entry point for the birdatlas content server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"birdatlas/internal/analytics"
	"birdatlas/internal/auth"
	"birdatlas/internal/cache"
	"birdatlas/internal/config"
	"birdatlas/internal/database"
	"birdatlas/internal/handlers"
	"birdatlas/internal/notify"
	"birdatlas/internal/region"
	"birdatlas/internal/router"
	"birdatlas/internal/session"
	"birdatlas/internal/storage"
	"birdatlas/internal/store"
)

func main() {
	// Structured logger — outputs text; level is debug outside production.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Static region hierarchy, embedded in the binary.
	regions, err := region.Load()
	if err != nil {
		slog.Error("failed to load region hierarchy", "error", err)
		os.Exit(1)
	}

	// Connect to MongoDB (content database).
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
	cancelConnect()
	if err != nil {
		slog.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Close(ctx)
	}()

	// Connect to PostgreSQL (pageview analytics) and run pending migrations.
	analyticsDB, err := analytics.Connect(cfg.AnalyticsDSN())
	if err != nil {
		slog.Error("failed to connect to analytics database", "error", err)
		os.Exit(1)
	}
	defer analyticsDB.Close()

	if err := analytics.Migrate(analyticsDB); err != nil {
		slog.Error("failed to run analytics migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (response cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark session cookies as Secure.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	respCache := cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)

	// Token validation against the shared identity provider secret.
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		slog.Error("failed to initialize token service", "error", err)
		os.Exit(1)
	}

	// Connect to S3-compatible object storage (optional — photo uploads
	// are rejected without it).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured — photo uploads disabled")
	}

	// Initialize data stores.
	hotspotStore := store.NewHotspotStore(db)
	revisionStore := store.NewRevisionStore(db, hotspotStore)
	photoStore := store.NewPhotoBatchStore(db, hotspotStore)
	groupStore := store.NewGroupStore(db, hotspotStore)
	driveStore := store.NewDriveStore(db, hotspotStore)
	articleStore := store.NewArticleStore(db)
	profileStore := store.NewProfileStore(db)
	viewStore := analytics.NewStore(analyticsDB)

	notifier := notify.NewLogNotifier(logger)

	// Create handler groups with their dependencies.
	deps := router.Deps{
		Tokens:      tokens,
		Sessions:    sessionStore,
		Public:      handlers.NewPublic(regions, hotspotStore, groupStore, driveStore, articleStore, respCache, viewStore),
		Submissions: handlers.NewSubmissions(hotspotStore, revisionStore, photoStore, storageClient, notifier),
		Editor:      handlers.NewEditor(regions, hotspotStore, revisionStore, photoStore, respCache),
		Content:     handlers.NewContent(regions, hotspotStore, groupStore, driveStore, articleStore, respCache),
		Account:     handlers.NewAccount(regions, profileStore),
		Dashboard:   handlers.NewDashboard(regions, sessionStore, hotspotStore, revisionStore, photoStore, viewStore),
		Cron:        handlers.NewCron(cfg.CronSecret, hotspotStore, revisionStore, photoStore, profileStore, respCache, notifier),
	}

	// Set up the Chi router with all middleware and routes.
	r := router.New(deps)

	// Create the HTTP server with sensible timeouts. WriteTimeout covers
	// multipart photo uploads on slow connections.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
