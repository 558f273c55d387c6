package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"storepages/app/internal/app/bootstrap"
	"storepages/app/internal/config"
	applog "storepages/app/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Component:   "storepages.migrate",
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	result, err := bootstrap.Build(ctx, bootstrap.Dependencies{
		Config:    *cfg,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "bootstrapping page store")
	}
	defer func() {
		if closeErr := result.Cleanup(); closeErr != nil {
			logger.WithError(closeErr).Error("closing page store")
		}
	}()

	pages, err := result.Pages.List(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "counting pages")
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.DBDriver,
		"pages":  len(pages),
	}).Info("schema applied and default store seeded")
	return nil
}
