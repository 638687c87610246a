package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"letterforge/api/internal/app"
	"letterforge/api/internal/authpw"
	"letterforge/api/internal/config"
	"letterforge/api/internal/email"
	"letterforge/api/internal/export"
	"letterforge/api/internal/llm"
	"letterforge/api/internal/session"
	"letterforge/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	gateway, err := llm.New(llm.Settings{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
	})
	if err != nil {
		log.Fatalf("llm gateway setup failed: %v", err)
	}

	// Refresh tokens live in Redis when available, Postgres otherwise.
	var sessions interface {
		SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
		LookupRefreshSession(ctx context.Context, tokenHash string) (string, error)
		RevokeRefreshSession(ctx context.Context, tokenHash string) error
	}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		log.Printf("Using PostgreSQL for refresh token storage")
		sessions = dataStore
	}

	var archive *export.Archive
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		archive, err = export.NewArchive(export.ArchiveConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("export archive setup failed: %v", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Printf("WARNING: export archive bucket check failed: %v", err)
		}
	}

	emailSvc := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	authSvc := authpw.NewService(dataStore)

	var service *app.Service
	if archive != nil {
		service = app.New(cfg, dataStore, sessions, gateway, archive, authSvc, emailSvc)
	} else {
		service = app.New(cfg, dataStore, sessions, gateway, nil, authSvc, emailSvc)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("LetterForge API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	service.Shutdown()
}
