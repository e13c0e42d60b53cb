package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/MumuCarrot/vote-BE/internal/attachment"
	"github.com/MumuCarrot/vote-BE/internal/audit"
	"github.com/MumuCarrot/vote-BE/internal/auth"
	"github.com/MumuCarrot/vote-BE/internal/blacklist"
	"github.com/MumuCarrot/vote-BE/internal/cache"
	"github.com/MumuCarrot/vote-BE/internal/config"
	"github.com/MumuCarrot/vote-BE/internal/election"
	"github.com/MumuCarrot/vote-BE/internal/health"
	"github.com/MumuCarrot/vote-BE/internal/logger"
	"github.com/MumuCarrot/vote-BE/internal/metrics"
	"github.com/MumuCarrot/vote-BE/internal/middleware"
	"github.com/MumuCarrot/vote-BE/internal/notification"
	"github.com/MumuCarrot/vote-BE/internal/password"
	"github.com/MumuCarrot/vote-BE/internal/repository"
	"github.com/MumuCarrot/vote-BE/internal/sanitizer"
	"github.com/MumuCarrot/vote-BE/internal/storage"
	"github.com/MumuCarrot/vote-BE/internal/token"
	"github.com/MumuCarrot/vote-BE/internal/user"
	"github.com/MumuCarrot/vote-BE/internal/vote"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	log := logger.New(logger.DefaultConfig())
	slog.SetDefault(log)

	if cfg.JWT.PrivateKeyPEM == "" || cfg.JWT.PublicKeyPEM == "" {
		log.Error("AUTH_PRIVATE_KEY and AUTH_PUBLIC_KEY are required")
		os.Exit(1)
	}

	db, err := setupDatabase(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisCache := cache.New(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
	defer redisCache.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		log.Error("failed to connect to redis", "error", err)
		cancelPing()
		os.Exit(1)
	}
	cancelPing()

	codec, err := token.NewCodec(token.Config{
		PrivateKeyPEM: cfg.JWT.PrivateKeyPEM,
		PublicKeyPEM:  cfg.JWT.PublicKeyPEM,
		Algorithm:     cfg.JWT.Algorithm,
		Host:          cfg.JWT.Host,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	if err != nil {
		log.Error("failed to build token codec", "error", err)
		os.Exit(1)
	}

	revocations := blacklist.New(redisCache, cfg.JWT.RefreshTTL)

	// Repositories
	userRepo := repository.New[repository.User](db, log)
	profileRepo := repository.New[repository.UserProfile](db, log)
	attemptRepo := repository.New[repository.LoginAttempt](db, log)
	electionRepo := repository.New[repository.Election](db, log)
	candidateRepo := repository.New[repository.Candidate](db, log)
	settingRepo := repository.New[repository.ElectionSetting](db, log)
	voteRepo := repository.New[repository.Vote](db, log)
	attachmentRepo := repository.New[repository.Attachment](db, log)
	notificationRepo := repository.New[repository.Notification](db, log)
	auditRepo := repository.New[repository.AuditLog](db, log)

	// Services
	hasher := &password.Hasher{}
	sanitize := sanitizer.New()
	auditRecorder := audit.NewRecorder(auditRepo, log)
	objectStore := storage.NewService(cfg.Storage)

	userService := user.NewService(userRepo, profileRepo, hasher, log)
	authService := auth.NewService(userService, attemptRepo, codec, revocations, hasher, cfg.Cookies.Secure, log)
	electionService := election.NewService(electionRepo, candidateRepo, settingRepo, attachmentRepo, sanitize, auditRecorder, log)
	voteService := vote.NewService(voteRepo, log)
	notificationService := notification.NewService(notificationRepo, log)

	// Handlers
	authHandler := auth.NewHandler(authService, userService)
	userHandler := user.NewHandler(userService)
	electionHandler := election.NewHandler(electionService)
	voteHandler := vote.NewHandler(voteService)
	notificationHandler := notification.NewHandler(notificationService)
	attachmentHandler := attachment.NewHandler(attachmentRepo, objectStore, log)
	healthHandler := health.NewHandler(health.Config{
		DB:      db,
		Redis:   redisCache.Client(),
		Version: version,
	})

	authMiddleware := middleware.NewAuthMiddleware(codec, revocations, userService)
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	dbStats := metrics.NewDBStatsCollector(db, log)
	dbStats.Start(30 * time.Second)
	defer dbStats.Stop()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		auth.RegisterRoutes(r, authHandler, authMiddleware.Authenticate, middleware.LimitByIP(loginLimiter))
		user.RegisterRoutes(r, userHandler, authMiddleware.Authenticate)
		election.RegisterRoutes(r, electionHandler, authMiddleware.Authenticate)
		vote.RegisterRoutes(r, voteHandler, authMiddleware.Authenticate)
		notification.RegisterRoutes(r, notificationHandler, authMiddleware.Authenticate)
		attachment.RegisterRoutes(r, attachmentHandler, authMiddleware.Authenticate)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}

// setupDatabase opens the shared sqlx pool over the pgx stdlib driver
func setupDatabase(cfg *config.Config, log *slog.Logger) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	log.Info("connected to database", "dbname", cfg.Database.DBName, "host", cfg.Database.Host)
	return db, nil
}
