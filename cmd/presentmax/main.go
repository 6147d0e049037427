package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/thecoachmanuel/presentmax/internal/auth"
	"github.com/thecoachmanuel/presentmax/internal/config"
	"github.com/thecoachmanuel/presentmax/internal/handler"
	"github.com/thecoachmanuel/presentmax/internal/identity"
	"github.com/thecoachmanuel/presentmax/internal/imagegen"
	"github.com/thecoachmanuel/presentmax/internal/logging"
	"github.com/thecoachmanuel/presentmax/internal/middleware"
	"github.com/thecoachmanuel/presentmax/internal/service"
	"github.com/thecoachmanuel/presentmax/internal/session"
	"github.com/thecoachmanuel/presentmax/internal/storage"
	"github.com/thecoachmanuel/presentmax/internal/store"
	"github.com/thecoachmanuel/presentmax/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	hashPassword := flag.String("hash-password", "", "Hash a password for PRESENTMAX_DEMO_PASSWORD_HASH and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "PresentMax server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DATABASE_URL           Pooled Postgres connection (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DIRECT_URL             Direct Postgres connection for migrations (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SUPABASE_URL           Hosted identity service base URL (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEXTAUTH_URL           Public base URL of this deployment (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEXTAUTH_SECRET        Session signing secret (required in production)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESENTMAX_PORT        Server port (default: 3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRESENTMAX_ENV         Environment: development|production (default: development)\n")
	}

	flag.Parse()

	if *showVersion {
		info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			slog.Error("hashing password", "error", err)
			os.Exit(1)
		}
		_, _ = fmt.Println(hash)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Run migrations over the direct connection, bypassing the pooler.
	slog.Info("running database migrations")
	if err := store.Migrate(cfg.DirectURL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	ctx := context.Background()
	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer pool.Close()
	slog.Info("database ready")

	queries := store.New(pool)

	// Upgrade logger so WARN and ERROR also land in the events table.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, queries))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	authSecret := cfg.AuthSecret
	if authSecret == "" {
		// Development fallback: sessions don't survive restarts.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generating fallback secret: %w", err)
		}
		authSecret = base64.StdEncoding.EncodeToString(buf)
		slog.Warn("NEXTAUTH_SECRET not set, using a generated secret")
	}

	sessions := session.NewManager(authSecret, session.DefaultTTL, cfg.IsProduction())

	verifier := identity.NewVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	credentials := identity.NewCredentialsAuthenticator(verifier, queries, identity.DemoAccount{
		Enabled:      cfg.DemoLogin,
		Email:        cfg.DemoEmail,
		PasswordHash: cfg.DemoPasswordHash,
	}, logger)

	var google handler.GoogleSignIn
	if cfg.GoogleEnabled() {
		google = identity.NewGoogleProvider(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.AuthURL+"/auth/google/callback",
			queries,
			logger,
		)
		slog.Info("google sign-in enabled")
	}

	generator := imagegen.NewClient(cfg.OpenRouterAPIKey, cfg.AuthURL, "PresentMax")
	uploader := storage.NewClient(cfg.UploadThingSecret)
	images := service.NewImageService(generator, uploader, queries, cfg.ImageModel, logger)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	authHandler := handler.NewAuthHandler(
		credentials, verifier, google, queries, sessions,
		loginProtection, cfg.IsProduction(), logger,
	)
	imagesHandler := handler.NewImagesHandler(images, logger)
	presentationHandler := handler.NewPresentationHandler(logger)
	healthHandler := handler.NewHealthHandler(pool)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(3 * time.Minute)) // generation calls are slow
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.LoadSession(sessions))
	r.Use(middleware.RouteGate())

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)

	r.Get("/auth/signin", authHandler.SignInForm)
	r.With(loginProtection.Middleware()).Post("/auth/signin", authHandler.SignIn)
	r.With(loginProtection.Middleware()).Post("/auth/signup", authHandler.SignUp)
	r.Post("/auth/signout", authHandler.SignOut)
	if google != nil {
		r.Get("/auth/google", authHandler.GoogleStart)
		r.Get("/auth/google/callback", authHandler.GoogleCallback)
	}

	r.Get(middleware.PathApp, presentationHandler.Page)
	r.Get(middleware.PathApp+"/*", presentationHandler.Page)

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/refresh", authHandler.Refresh)
		r.Post("/images/generate", imagesHandler.Generate)
		r.Get("/images", imagesHandler.List)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      4 * time.Minute, // must outlive the generation timeout
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
