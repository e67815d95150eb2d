// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/castlib/strmorg/internal/config"
	"github.com/castlib/strmorg/internal/httpapi"
	"github.com/castlib/strmorg/internal/jobs"
	slog "github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/metadata"
	"github.com/castlib/strmorg/internal/orchestrator"
	"github.com/castlib/strmorg/internal/session"
	"github.com/castlib/strmorg/internal/telemetry"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Configure(slog.Config{Level: "info", Service: "strmorgd", Version: version})
	logger := slog.WithComponent("main")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	slog.Configure(slog.Config{Level: cfg.LogLevel, Service: "strmorgd", Version: version})

	// The real metadata provider is out of scope (classification is a pure
	// function over externally supplied tables); strmorgd runs against the
	// in-memory fake until a production adapter is wired in by an operator.
	store := session.NewStore()
	if cfg.SessionDB != "" {
		mirror, err := session.NewSqliteMirror(cfg.SessionDB)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open session mirror database")
		}
		store.Mirror = mirror
		defer func() { _ = mirror.Close() }()
	}

	tp, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		Enabled:        cfg.TracingOn,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		SamplingRate:   1.0,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start telemetry provider")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("telemetry provider shutdown failed")
		}
	}()

	provider := metadata.NewFake()
	orch := orchestrator.New(store, provider)

	server := httpapi.NewServer(orch, 120)

	var enqueuer *jobs.Enqueuer
	var jobServer *asynq.Server
	if cfg.RedisAddr != "" {
		enqueuer = jobs.NewEnqueuer(cfg.RedisAddr)
		server.Enqueuer = enqueuer
		jobServer = jobs.NewServer(cfg.RedisAddr, cfg.Pools.TargetUploadConcurrency)
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("materialization jobs dispatched via asynq")
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if jobServer != nil {
		if err := jobServer.Start(jobs.NewServeMux(orch)); err != nil {
			logger.Fatal().Err(err).Msg("failed to start job worker")
		}
		g.Go(func() error {
			<-gctx.Done()
			jobServer.Shutdown()
			return enqueuer.Close()
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
