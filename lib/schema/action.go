// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// ActionType identifies one remediation operation the fleet knows how
// to perform. The set is fixed: every type maps to exactly one command
// form, one whitelist pattern (lib/command), and one dedupe rule.
// Values are self-describing strings that serialize directly to JSON.
type ActionType string

const (
	// ActionRestartService restarts a single systemd unit
	// ("systemctl restart <unit>").
	ActionRestartService ActionType = "restart_service"

	// ActionClearLogs vacuums the systemd journal down to a retention
	// window ("journalctl --vacuum-time=<N>d").
	ActionClearLogs ActionType = "clear_logs"

	// ActionPackageUpdate refreshes the package index
	// ("apt-get update -q"). No packages are installed.
	ActionPackageUpdate ActionType = "package_update"

	// ActionPackageUpgradeAll upgrades every installed package
	// ("apt-get upgrade -y -q").
	ActionPackageUpgradeAll ActionType = "package_upgrade_all"

	// ActionPackageUpgradeSecurityOnly applies pending security
	// updates only ("unattended-upgrade -v").
	ActionPackageUpgradeSecurityOnly ActionType = "package_upgrade_security_only"
)

// IsKnown reports whether t is one of the defined ActionType values.
func (t ActionType) IsKnown() bool {
	switch t {
	case ActionRestartService, ActionClearLogs, ActionPackageUpdate,
		ActionPackageUpgradeAll, ActionPackageUpgradeSecurityOnly:
		return true
	}
	return false
}

// ActionStatus is the lifecycle state of an Action. Transitions are
// owned by the hub's action store: pending → approved → executing →
// completed or failed, with rejection possible from pending or
// approved. No other transitions exist.
type ActionStatus string

const (
	// StatusPending means the action awaits operator approval.
	StatusPending ActionStatus = "pending"

	// StatusApproved means the action is queued for delivery on the
	// host's next heartbeat.
	StatusApproved ActionStatus = "approved"

	// StatusExecuting means the command has been handed to the agent
	// and no result has been applied yet.
	StatusExecuting ActionStatus = "executing"

	// StatusCompleted means the agent reported exit code 0.
	StatusCompleted ActionStatus = "completed"

	// StatusFailed means the agent reported a non-zero exit code, a
	// timeout, a whitelist rejection, or a spawn failure.
	StatusFailed ActionStatus = "failed"

	// StatusRejected means an operator declined the action before it
	// was delivered.
	StatusRejected ActionStatus = "rejected"
)

// IsKnown reports whether s is one of the defined ActionStatus values.
func (s ActionStatus) IsKnown() bool {
	switch s {
	case StatusPending, StatusApproved, StatusExecuting,
		StatusCompleted, StatusFailed, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s is a final state. Terminal actions never
// transition again and do not count against the one-non-terminal-
// action-per-dedupe-key limit.
func (s ActionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRejected:
		return true
	}
	return false
}

// ActionOrigin records who asked for an action.
type ActionOrigin string

const (
	// OriginAutomatic marks actions created by hub-side policy (a
	// maintenance window or another automated caller).
	OriginAutomatic ActionOrigin = "automatic"

	// OriginManual marks actions created by an operator through the
	// dashboard API or the CLI.
	OriginManual ActionOrigin = "manual"
)

// IsKnown reports whether o is one of the defined ActionOrigin values.
func (o ActionOrigin) IsKnown() bool {
	return o == OriginAutomatic || o == OriginManual
}

// Action is the durable record of one remediation on one host. The
// hub's action store is the sole writer of Status and the result
// fields; every other component reads Actions and requests transitions
// through store operations.
type Action struct {
	// ID is the store-assigned identifier. IDs increase monotonically
	// with creation order, so they double as the tie-break when two
	// actions share a creation timestamp.
	ID int64 `json:"id"`

	// Host names the agent this action targets.
	Host string `json:"host"`

	// Type is the remediation operation.
	Type ActionType `json:"action_type"`

	// Command is the fully-resolved command string the agent will
	// validate and execute. Resolved once at creation from Type and
	// Parameters; never rewritten afterwards.
	Command string `json:"command"`

	// Parameters are the inputs the command was resolved from, kept
	// for display and audit. Empty for parameterless types.
	Parameters map[string]string `json:"parameters,omitempty"`

	// DedupeKey is the logical identity of this action. At most one
	// non-terminal action may exist per (Host, DedupeKey).
	DedupeKey string `json:"dedupe_key"`

	// Status is the current lifecycle state.
	Status ActionStatus `json:"status"`

	// Origin records whether an operator or hub policy created the
	// action.
	Origin ActionOrigin `json:"origin"`

	// CreatedAt is when the store accepted the action. Dispatch order
	// is oldest CreatedAt first, lowest ID on ties.
	CreatedAt time.Time `json:"created_at"`

	// ExecutedAt is when the command was handed to the agent. Nil
	// until the action reaches executing.
	ExecutedAt *time.Time `json:"executed_at,omitempty"`

	// CompletedAt is when the result was applied. Nil until the
	// action reaches completed or failed.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ExitCode is the command's exit code. -1 for whitelist
	// rejections, timeouts, and spawn failures. Nil until a result is
	// applied.
	ExitCode *int `json:"exit_code,omitempty"`

	// Stdout is the captured standard output, truncated to
	// MaxCapturedOutput bytes.
	Stdout string `json:"stdout,omitempty"`

	// Stderr is the captured standard error, truncated to
	// MaxCapturedOutput bytes.
	Stderr string `json:"stderr,omitempty"`
}
