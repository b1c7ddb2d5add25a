package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/call-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/call-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/call-analyzer/internal/config"
	"github.com/bryanwahyu/call-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/call-analyzer/internal/infra/db"
	"github.com/bryanwahyu/call-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/call-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/call-analyzer/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// load config
	cfg, err := config.Load(config.ResolvePath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx := context.Background()

	// completion client
	client := openai.NewClient(openai.Options{
		APIKey:              cfg.Completion.APIKey,
		Model:               cfg.Completion.Model,
		BaseURL:             cfg.Completion.BaseURL,
		Timeout:             cfg.Completion.Timeout,
		MaxCompletionTokens: cfg.Completion.MaxCompletionTokens,
	})
	if err := client.Err(); err != nil {
		slog.Warn("completion client not configured; every analysis will fail until API_KEY is set", "error", err)
	}

	store := storage.NewCSVStore(cfg.Log.CSVPath)

	svc := &appanalysis.Service{
		Completer: client,
		Log:       store,
		Clock:     application.SystemClock{},
	}

	checkers := map[string]middleware.HealthChecker{
		"log_store": middleware.CheckerFunc(store.Check),
		"completion": middleware.CheckerFunc(func(context.Context) error {
			return client.Err()
		}),
	}

	// optional SQL mirror
	if cfg.HistoryEnabled() {
		conn, repo, err := db.OpenHistory(ctx, cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		svc.History = repo
		checkers["history"] = &middleware.DatabaseHealthChecker{DB: conn}
		slog.Info("history mirror enabled", "driver", cfg.History.Driver)
	}

	// optional MinIO archive
	if cfg.ArchiveEnabled() {
		arch, err := storage.NewArchiver(ctx, storage.MinioOptions{
			Endpoint:   cfg.Archive.Endpoint,
			Region:     cfg.Archive.Region,
			BucketName: cfg.Archive.BucketName,
			AccessKey:  cfg.Archive.AccessKey,
			SecretKey:  cfg.Archive.SecretKey,
			UseSSL:     cfg.Archive.UseSSL,
			Prefix:     cfg.Archive.Prefix,
		})
		if err != nil {
			return err
		}
		svc.Archiver = arch
		slog.Info("log archive enabled", "bucket", cfg.Archive.BucketName)
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		CSVFile:        store.Path(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Checkers:       checkers,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Completion.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr, "csv", store.Path(), "model", client.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
