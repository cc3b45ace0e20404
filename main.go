package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sgatu/bookstore-back/config"
	"github.com/sgatu/bookstore-back/handlers"
	"github.com/sgatu/bookstore-back/infrastructure/repositories"
	"github.com/sgatu/bookstore-back/logger"
	"github.com/sgatu/bookstore-back/middleware"
	"github.com/sgatu/bookstore-back/models"
	"github.com/sgatu/bookstore-back/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("bookstore stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("bookstore stopped cleanly")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	catalog := repositories.DefaultCatalog()
	if cfg.CatalogFile != "" {
		loaded, err := repositories.LoadCatalogFile(cfg.CatalogFile)
		if err != nil {
			return err
		}
		catalog = loaded
	}
	bookRepository, err := repositories.NewMemoryBookRepository(catalog)
	if err != nil {
		return err
	}
	log.Info("catalog ready", "books", len(catalog))

	sessionRepository, closeSessions, err := setupSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		log.Warn("SESSION_SECRET not set, using a random per-process key")
	}
	authenticator, err := services.NewSessionAuthenticator(sessionRepository, secret, cfg.SessionTTL(), services.WithLogger(log))
	if err != nil {
		return err
	}
	authenticator.StartSweeper(ctx, cfg.SessionSweepInterval)

	node, err := snowflake.NewNode(cfg.NodeId)
	if err != nil {
		return fmt.Errorf("snowflake node: %w", err)
	}
	feed := services.NewReviewFeed(log)
	feed.SetObserverLimit(cfg.WatchMaxPerBook)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))
	router.Use(cors.New(corsConfig(cfg)))
	handlers.SetupRoutes(router, handlers.Dependencies{
		Users:          services.NewUserDirectory(repositories.NewMemoryUserRepository(), node, cfg.BcryptCost, log),
		Authenticator:  authenticator,
		SessionManager: middleware.NewSessionManager(authenticator, cfg.CookieSecure),
		Catalog:        services.NewCatalogService(bookRepository),
		Reviews:        services.NewReviewService(bookRepository, feed, log),
		Feed:           feed,
		Logger:         log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	log.Info("bookstore started", "port", cfg.AppPort, "session_backend", cfg.SessionBackend)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func setupSessions(ctx context.Context, cfg config.Config) (models.SessionRepository, func(), error) {
	if cfg.SessionBackend != config.SessionBackendRedis {
		return repositories.NewMemorySessionRepository(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	repo := repositories.NewRedisSessionRepository(client)
	repo.SetPrefix(cfg.RedisPrefix)
	return repo, func() { client.Close() }, nil
}

func corsConfig(cfg config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.RequestIdHeader)
	corsCfg.ExposeHeaders = []string{middleware.RequestIdHeader}
	if len(cfg.CorsOrigins) == 0 || (len(cfg.CorsOrigins) == 1 && cfg.CorsOrigins[0] == "*") {
		// Credentials cannot be combined with a literal "*" origin.
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
		return corsCfg
	}
	corsCfg.AllowOrigins = cfg.CorsOrigins
	return corsCfg
}
