// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bureau-foundation/remedy/lib/clock"
	"github.com/bureau-foundation/remedy/lib/command"
	"github.com/bureau-foundation/remedy/lib/config"
	"github.com/bureau-foundation/remedy/lib/schema"
)

// defaultCommandTimeout applies when the hub sends a command without
// an explicit wall-clock bound.
const defaultCommandTimeout = 30 * time.Second

// whitelistRejection is the stderr text for commands that fail the
// agent-side whitelist check.
const whitelistRejection = "Command not in whitelist"

// executor runs one whitelisted command at a time and produces a
// CommandResult for every pending command it is handed, including the
// ones it refuses to spawn.
type executor struct {
	guard            *contentionGuard
	escalationPrefix string
	clock            clock.Clock
	logger           *slog.Logger

	mu      sync.Mutex
	current *executionState
}

// executionState describes the command occupying the execution slot.
type executionState struct {
	ActionID int64     `json:"action_id"`
	Command  string    `json:"command"`
	Started  time.Time `json:"started"`
}

func newExecutor(cfg *config.AgentConfig, guard *contentionGuard, clk clock.Clock, logger *slog.Logger) *executor {
	return &executor{
		guard:            guard,
		escalationPrefix: cfg.EscalationPrefix,
		clock:            clk,
		logger:           logger,
	}
}

// Current returns a copy of the in-flight command's state, or nil when
// the executor is idle.
func (e *executor) Current() *executionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	state := *e.current
	return &state
}

// Execute validates, gates, and runs one command to completion. It
// never returns an error: refusals and failures are encoded in the
// result's exit code and stderr, the same shape as a command that ran
// and failed.
func (e *executor) Execute(ctx context.Context, pending schema.PendingCommand) schema.CommandResult {
	now := e.clock.Now()

	// Re-validate against the whitelist regardless of what the hub
	// sent. A compromised or misconfigured hub must not be able to
	// run arbitrary shell through the agent.
	if err := command.Validate(pending.Type, pending.Command); err != nil {
		e.logger.Error("command rejected by whitelist",
			"action_id", pending.ActionID,
			"command", pending.Command,
			"error", err,
		)
		return refusal(pending.ActionID, now, whitelistRejection)
	}

	if message, skip := e.guard.Check(pending); skip {
		e.logger.Warn("command skipped by contention guard",
			"action_id", pending.ActionID,
			"command", pending.Command,
		)
		return schema.CommandResult{
			ActionID:    pending.ActionID,
			ExitCode:    0,
			Stdout:      message,
			ExecutedAt:  now,
			CompletedAt: now,
		}
	}

	if !e.acquire(pending, now) {
		e.logger.Warn("command refused, execution slot busy",
			"action_id", pending.ActionID,
		)
		return refusal(pending.ActionID, now, "another command is already executing")
	}
	defer e.release()

	result := e.run(ctx, pending)
	e.guard.Record(pending)
	return result
}

func (e *executor) acquire(pending schema.PendingCommand, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		return false
	}
	e.current = &executionState{
		ActionID: pending.ActionID,
		Command:  pending.Command,
		Started:  at,
	}
	return true
}

func (e *executor) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
}

// run spawns the command via sh -c with captured output and a hard
// timeout. The shell is resolved via PATH rather than hardcoded to
// /bin/sh, which is also correct on hosts where /bin/sh is not the
// expected shell.
//
// The command runs in its own process group so that the timeout kills
// the shell and all its children. Without Setpgid only the shell would
// receive the signal — children survive, hold the capture pipes open,
// and block Wait indefinitely.
func (e *executor) run(ctx context.Context, pending schema.PendingCommand) schema.CommandResult {
	timeout := time.Duration(pending.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	shellCommand := pending.Command
	if e.escalationPrefix != "" {
		shellCommand = e.escalationPrefix + " " + shellCommand
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr cappedWriter
	cmd := exec.CommandContext(runCtx, "sh", "-c", shellCommand)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Remediation commands get no grace period: past the timeout the
	// command is presumed hung and the whole process group is killed
	// (negative PID = every process in the group).
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	e.logger.Info("executing command",
		"action_id", pending.ActionID,
		"command", shellCommand,
		"timeout", timeout,
	)

	started := e.clock.Now()
	err := cmd.Run()
	completed := e.clock.Now()

	exitCode := 0
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			exitCode = exitError.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrText := stderr.Text()
	if runCtx.Err() == context.DeadlineExceeded {
		exitCode = -1
		stderrText = appendNote(stderrText, fmt.Sprintf("command timed out after %s and was killed", timeout))
	} else if err != nil && exitCode == -1 {
		// Spawn failures have no process output; surface the error
		// itself.
		stderrText = appendNote(stderrText, err.Error())
	}

	e.logger.Info("command finished",
		"action_id", pending.ActionID,
		"exit_code", exitCode,
		"duration", completed.Sub(started).Round(time.Millisecond),
	)

	return schema.CommandResult{
		ActionID:    pending.ActionID,
		ExitCode:    exitCode,
		Stdout:      stdout.Text(),
		Stderr:      stderrText,
		ExecutedAt:  started,
		CompletedAt: completed,
	}
}

// refusal builds the result for a command the agent declined to spawn.
func refusal(actionID int64, at time.Time, message string) schema.CommandResult {
	return schema.CommandResult{
		ActionID:    actionID,
		ExitCode:    -1,
		Stderr:      message,
		ExecutedAt:  at,
		CompletedAt: at,
	}
}

func appendNote(text, note string) string {
	if text == "" {
		return note
	}
	return text + "\n" + note
}

// cappedWriter keeps the first MaxCapturedOutput bytes written and
// discards the rest. Commands can emit unbounded output; only the head
// is useful for diagnosis and only the head is shipped to the hub.
type cappedWriter struct {
	buf bytes.Buffer
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	if remaining := schema.MaxCapturedOutput - w.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			w.buf.Write(p[:remaining])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}

// Text returns the captured head as valid UTF-8 within the wire
// limit. A capture cut mid-rune or a command emitting raw bytes must
// not poison the CBOR heartbeat, so mangled sequences are replaced.
func (w *cappedWriter) Text() string {
	return schema.TruncateOutput(strings.ToValidUTF8(w.buf.String(), "�"))
}
