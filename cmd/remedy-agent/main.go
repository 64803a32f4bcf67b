// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bureau-foundation/remedy/lib/clock"
	"github.com/bureau-foundation/remedy/lib/config"
	"github.com/bureau-foundation/remedy/lib/process"
	"github.com/bureau-foundation/remedy/lib/version"
)

// agent wires the heartbeat loop, the executor, and the admin socket
// around one config.
type agent struct {
	config   *config.AgentConfig
	client   *hubClient
	executor *executor
	results  *resultBuffer
	sampler  *metricsSampler
	clock    clock.Clock
	logger   *slog.Logger
	jitter   time.Duration

	mu            sync.Mutex
	lastBeat      time.Time
	beats         uint64
	lastBeatError string
}

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "path to the agent configuration file (default $REMEDY_AGENT_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("remedy-agent")
		return nil
	}

	var cfg *config.AgentConfig
	var err error
	if configPath != "" {
		cfg, err = config.LoadAgentFile(configPath)
	} else {
		cfg, err = config.LoadAgent()
	}
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	realClock := clock.Real()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	guard := newContentionGuard(cfg, realClock)
	daemon := &agent{
		config:   cfg,
		client:   newHubClient(cfg),
		executor: newExecutor(cfg, guard, realClock, logger),
		results:  newResultBuffer(),
		sampler:  &metricsSampler{},
		clock:    realClock,
		logger:   logger,
		jitter:   heartbeatJitter(cfg.HeartbeatInterval()),
	}

	socket := daemon.newAdminSocket()
	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socket.Serve(ctx)
	}()

	logger.Info("remedy agent running",
		"host_id", cfg.HostID,
		"hub", cfg.HubURL,
		"heartbeat_interval", cfg.HeartbeatInterval(),
		"socket", cfg.SocketPath,
		"redundant_services", len(cfg.RedundantServices),
		"authenticated", cfg.AuthSecret != "",
	)

	daemon.runHeartbeats(ctx)

	logger.Info("shutting down")
	err = <-socketDone
	logger.Info("remedy agent stopped")
	return err
}

// heartbeatJitter picks a random initial delay in [0, interval/4) so a
// fleet-wide agent restart does not synchronize every host's poll.
func heartbeatJitter(interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(interval / 4)))
}
