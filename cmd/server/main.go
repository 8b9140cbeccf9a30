package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"pressroom/app/internal/blocks"
	"pressroom/app/internal/config"
	"pressroom/app/internal/content"
	appdb "pressroom/app/internal/db"
	apphttp "pressroom/app/internal/http"
	applog "pressroom/app/internal/log"
	"pressroom/app/internal/release"
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
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(dbConn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := content.Migrate(ctx, dbConn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	repository, err := content.NewRepository(dbConn, logger)
	if err != nil {
		return eris.Wrap(err, "building content repository")
	}

	writer, err := content.NewWriter(dbConn, logger)
	if err != nil {
		return eris.Wrap(err, "building content writer")
	}

	pager, err := content.NewPager(repository, logger)
	if err != nil {
		return eris.Wrap(err, "building content pager")
	}

	matcher, err := content.NewMatcher(repository, logger)
	if err != nil {
		return eris.Wrap(err, "building search matcher")
	}

	renderer := blocks.NewRenderer(logger)

	dispatcher, err := release.NewDispatcher(release.Options{
		RevalidateURL: cfg.RevalidateURL,
		NotifyURL:     cfg.NotifyWebhookURL,
		Logger:        logger,
	})
	if err != nil {
		return eris.Wrap(err, "building release dispatcher")
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		Repository:    repository,
		Writer:        writer,
		Pager:         pager,
		Matcher:       matcher,
		Renderer:      renderer,
		Dispatcher:    dispatcher,
		Database:      dbConn,
		Logger:        logger,
		SentryHub:     sentryHub,
		WebhookSecret: cfg.WebhookSecret,
		RateLimiter: apphttp.RateLimiterSettings{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr": httpServer.Addr,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}
