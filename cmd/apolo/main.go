// Package main запускает HTTP-сервер приложения спортзала.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/apolo-gym/internal/config"
	"github.com/mmeshcher/apolo-gym/internal/handler"
	"github.com/mmeshcher/apolo-gym/internal/repository"
	"github.com/mmeshcher/apolo-gym/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := newRepository(cfg)
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, logger)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Load(ctx); err != nil {
		sugar.Fatalw("load state error", "error", err.Error())
	}

	h := handler.NewHandler(svc, logger, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Повторное сохранение состояния, если запись не удалась
	g.Go(func() error {
		svc.StartPersistenceRetries(ctx, cfg.SaveRetryInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting apolo gym server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		// Последняя попытка сохранить несохранённые изменения
		if svc.Dirty() {
			if err := svc.Flush(shutdownCtx); err != nil {
				sugar.Errorw("final save failed", "error", err)
			}
		}

		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newRepository(cfg *config.Config) (service.Repository, error) {
	if cfg.DatabaseURI != "" {
		return repository.NewPostgresRepository(cfg.DatabaseURI)
	}
	return repository.NewFileRepository(cfg.DataFile), nil
}
