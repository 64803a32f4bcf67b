// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// HeartbeatPath is the hub endpoint agents poll. The request and
// response bodies are CBOR.
const HeartbeatPath = "/api/heartbeat"

// ContentTypeCBOR is the media type of heartbeat bodies.
const ContentTypeCBOR = "application/cbor"

// SignatureHeader carries the hex HMAC-SHA256 of the request body,
// prefixed "sha256=", when the deployment configures an auth secret.
const SignatureHeader = "X-Remedy-Signature"

// PendingCommand is the per-heartbeat projection of one approved
// Action, sent hub → agent. Wire-only: never persisted. A heartbeat
// response carries at most one, because each host runs at most one
// command at a time.
type PendingCommand struct {
	// ActionID identifies the Action this command executes. The agent
	// echoes it back in the CommandResult.
	ActionID int64 `json:"action_id"`

	// Type is the remediation operation, used by the agent to select
	// the whitelist pattern and the contention class.
	Type ActionType `json:"action_type"`

	// Command is the fully-resolved command string. The agent
	// validates it against its own whitelist before spawning
	// anything, regardless of hub-side checks.
	Command string `json:"command"`

	// Parameters are the resolution inputs, for agent-side logging.
	Parameters map[string]string `json:"parameters,omitempty"`

	// TimeoutSeconds is the hard wall-clock limit for the command.
	// The agent kills the process group when it expires.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// CommandResult is the agent's report of one finished command, sent
// agent → hub. Wire-only. The agent holds each result in memory and
// re-sends it on every heartbeat until the hub acknowledges its
// ActionID; the hub applies results idempotently, so re-delivery is
// harmless.
type CommandResult struct {
	// ActionID identifies the Action this result belongs to.
	ActionID int64 `json:"action_id"`

	// ExitCode is the command's exit code, or -1 for whitelist
	// rejections, timeouts, and spawn failures.
	ExitCode int `json:"exit_code"`

	// Stdout is the captured standard output, sanitized and truncated
	// to MaxCapturedOutput bytes on the agent.
	Stdout string `json:"stdout,omitempty"`

	// Stderr is the captured standard error, sanitized and truncated
	// to MaxCapturedOutput bytes on the agent.
	Stderr string `json:"stderr,omitempty"`

	// ExecutedAt is when the agent started (or refused) the command.
	ExecutedAt time.Time `json:"executed_at"`

	// CompletedAt is when the command finished on the agent.
	CompletedAt time.Time `json:"completed_at"`
}

// MetricsSnapshot is the telemetry payload of one heartbeat. The hub
// stores the latest snapshot per host for the dashboard; it is not
// retained as a time series.
type MetricsSnapshot struct {
	// CPUPercent is total CPU utilization (0-100), averaged over the
	// interval since the previous heartbeat.
	CPUPercent int `json:"cpu_percent"`

	// MemoryUsedMB is current memory usage in megabytes.
	MemoryUsedMB int `json:"memory_used_mb"`

	// UptimeSeconds is the host uptime in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// AgentVersion is the remedy-agent build reporting this
	// heartbeat.
	AgentVersion string `json:"agent_version,omitempty"`
}

// HeartbeatRequest is the agent → hub poll body. Every heartbeat
// carries the host's identity and metrics; CommandResults rides along
// whenever the agent holds results the hub has not yet acknowledged.
type HeartbeatRequest struct {
	// HostID names the reporting host. Unknown hosts are registered
	// on first contact.
	HostID string `json:"host_id"`

	// Metrics is the current telemetry snapshot.
	Metrics MetricsSnapshot `json:"metrics"`

	// CommandResults are all results the agent is still waiting to
	// have acknowledged, oldest first.
	CommandResults []CommandResult `json:"command_results,omitempty"`
}

// HeartbeatResponse is the hub → agent reply. Results are acknowledged
// before the next command is chosen, so a response never re-delivers a
// command whose result arrived in the same request.
type HeartbeatResponse struct {
	// AcknowledgedResultIDs lists the ActionIDs of every result
	// received in the request, applied or dropped. The agent discards
	// its retained copy of each acknowledged result.
	AcknowledgedResultIDs []int64 `json:"acknowledged_result_ids,omitempty"`

	// PendingCommands carries the next command for this host: empty,
	// or exactly one entry.
	PendingCommands []PendingCommand `json:"pending_commands,omitempty"`
}
