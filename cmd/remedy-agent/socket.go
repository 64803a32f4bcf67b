// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/bureau-foundation/remedy/lib/command"
	"github.com/bureau-foundation/remedy/lib/service"
	"github.com/bureau-foundation/remedy/lib/version"
)

// agentStatus is the payload for the admin socket's status action.
type agentStatus struct {
	HostID             string          `json:"host_id"`
	HubURL             string          `json:"hub_url"`
	AgentVersion       string          `json:"agent_version"`
	Heartbeats         uint64          `json:"heartbeats"`
	LastHeartbeat      time.Time       `json:"last_heartbeat"`
	LastHeartbeatError string          `json:"last_heartbeat_error,omitempty"`
	PendingResults     int             `json:"pending_results"`
	Executing          *executionState `json:"executing,omitempty"`
	RedundantServices  []string        `json:"redundant_services,omitempty"`
}

// newAdminSocket builds the local Unix-socket interface: status for an
// operator checking on an agent, whitelist for auditing exactly what
// the agent will consent to run.
func (a *agent) newAdminSocket() *service.SocketServer {
	server := service.NewSocketServer(a.config.SocketPath, a.logger)
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return a.status(), nil
	})
	server.Handle("whitelist", func(ctx context.Context, raw []byte) (any, error) {
		return command.WhitelistPatterns(), nil
	})
	return server
}

func (a *agent) status() agentStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return agentStatus{
		HostID:             a.config.HostID,
		HubURL:             a.config.HubURL,
		AgentVersion:       version.Version,
		Heartbeats:         a.beats,
		LastHeartbeat:      a.lastBeat,
		LastHeartbeatError: a.lastBeatError,
		PendingResults:     a.results.Len(),
		Executing:          a.executor.Current(),
		RedundantServices:  a.config.RedundantServices,
	}
}
