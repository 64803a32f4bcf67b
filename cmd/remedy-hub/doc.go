// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Remedy-hub is the coordination service for fleet remediation. It
// never connects out to agents: each agent polls it with periodic
// CBOR heartbeats, and command delivery and result reporting both
// ride that poll. The hub keeps the durable action queue in SQLite,
// gates actions on operator approval or maintenance mode, and hands
// each host at most one command at a time.
//
// # Heartbeat cycle
//
// POST /api/heartbeat is the protocol core. For each poll the hub
// records the host's metrics snapshot, applies any command results
// the agent is still holding (idempotently; unknown or stale results
// are logged, counted, and acknowledged, never errors), and then
// claims the host's oldest approved action inside a single database
// transaction. The response acknowledges every received result id
// and carries zero or one pending commands. Result ingestion runs
// before command selection, so the result of a finished command and
// the next command share one cycle.
//
// # Action lifecycle
//
// Actions move pending → approved → executing → completed or failed;
// pending and approved actions can be rejected. Creation resolves the
// typed parameters into the exact command string agents will run and
// enforces one non-terminal action per (host, operation). The
// approval gate auto-approves actions created while the host is in
// maintenance: an explicit per-host or fleet-wide flag, or a
// configured recurring maintenance window.
//
// # Dashboard API
//
// A JSON API under /api serves the management dashboard: action
// create/list/get/approve/reject, host listing with derived health
// (online, suspect, offline by heartbeat staleness), and the
// maintenance toggles. /healthz reports liveness and /metrics exposes
// Prometheus counters.
//
// # Configuration
//
// The hub reads a single YAML file named by --config or
// $REMEDY_HUB_CONFIG. When auth_secret is set, heartbeats must carry
// an HMAC-SHA256 signature of the request body; the dashboard API is
// expected to sit behind an authenticating reverse proxy.
package main
