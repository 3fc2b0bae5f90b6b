package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/app/apiapp"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/config"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/logger"
	pgrepo "github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/postgres"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg, os.Args[2:], log); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := apiapp.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("create api app", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown api app", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api server failed", zap.Error(err))
		}
	}
}

func runMigrate(cfg config.Config, args []string, log *zap.Logger) error {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	switch direction {
	case "up":
		version, err := pgrepo.Migrate(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Uint("version", version))
		return nil
	case "down":
		if err := pgrepo.MigrateDown(cfg.Postgres.DSN); err != nil {
			return err
		}
		log.Info("migrations rolled back")
		return nil
	default:
		return fmt.Errorf("unknown migrate direction %q, want up or down", direction)
	}
}
