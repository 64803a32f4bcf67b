// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/remedy/lib/clock"
	"github.com/bureau-foundation/remedy/lib/config"
	"github.com/bureau-foundation/remedy/lib/cron"
	"github.com/bureau-foundation/remedy/lib/process"
	"github.com/bureau-foundation/remedy/lib/service"
	"github.com/bureau-foundation/remedy/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

// hubServer is the core state shared by the hub's HTTP handlers and
// background loops.
type hubServer struct {
	config  *config.HubConfig
	store   *Store
	clock   clock.Clock
	logger  *slog.Logger
	metrics *hubMetrics
	windows []cron.Window
}

func run() error {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "path to the hub configuration file (default $REMEDY_HUB_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("remedy-hub")
		return nil
	}

	var cfg *config.HubConfig
	var err error
	if configPath != "" {
		cfg, err = config.LoadHubFile(configPath)
	} else {
		cfg, err = config.LoadHub()
	}
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	realClock := clock.Real()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := OpenStore(StoreConfig{
		Path:   cfg.DatabasePath,
		Clock:  realClock,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close", "error", err)
		}
	}()

	windows, err := cfg.Windows()
	if err != nil {
		return err
	}

	server := &hubServer{
		config:  cfg,
		store:   store,
		clock:   realClock,
		logger:  logger,
		metrics: newHubMetrics(),
		windows: windows,
	}

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.ListenAddress,
		Handler:         server.router(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Logger:          logger,
	})

	if grace := cfg.ExecutionGracePeriod(); grace > 0 {
		go server.runReaper(ctx, grace)
	}

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- httpServer.Serve(ctx)
	}()

	select {
	case <-httpServer.Ready():
	case err := <-serveDone:
		// Serve returned before the listener bound, e.g. the
		// address is already in use.
		return err
	}

	logger.Info("remedy hub running",
		"address", httpServer.Addr().String(),
		"database", cfg.DatabasePath,
		"heartbeat_interval", cfg.HeartbeatInterval(),
		"maintenance_windows", len(windows),
		"authenticated", cfg.AuthSecret != "",
	)

	<-ctx.Done()
	logger.Info("shutting down")

	return <-serveDone
}
