// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/bureau-foundation/remedy/lib/clock"
	"github.com/bureau-foundation/remedy/lib/config"
	"github.com/bureau-foundation/remedy/lib/schema"
)

// contentionGuard spaces out restarts of services this host serves as
// one half of a redundant pair. If both halves restart within minutes
// of each other the pair has an outage, so each agent refuses to
// bounce a guarded unit again inside the cool-down window.
//
// The guard is advisory and local: it tracks what THIS agent ran, in
// memory, and a skipped command reports success with a diagnostic
// rather than a failure. A restart the operator genuinely needs again
// can be re-issued after the window passes.
type contentionGuard struct {
	cooldown time.Duration
	guarded  map[string]bool
	clock    clock.Clock

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func newContentionGuard(cfg *config.AgentConfig, clk clock.Clock) *contentionGuard {
	guarded := make(map[string]bool, len(cfg.RedundantServices))
	for _, unit := range cfg.RedundantServices {
		guarded[unit] = true
	}
	return &contentionGuard{
		cooldown: cfg.ContentionCooldown(),
		guarded:  guarded,
		clock:    clk,
		lastRun:  make(map[string]time.Time),
	}
}

// class maps a command to its contention class, or "" when the command
// is not guarded. Only restarts of configured redundant units are
// spaced out; package operations and log cleanup do not take a serving
// process down.
func (g *contentionGuard) class(pending schema.PendingCommand) string {
	if pending.Type != schema.ActionRestartService {
		return ""
	}
	unit := pending.Parameters["unit"]
	if unit == "" || !g.guarded[unit] {
		return ""
	}
	return string(pending.Type) + ":" + unit
}

// Check reports whether the command must be skipped because its class
// ran too recently. The returned message ends up as the action's
// stdout, explaining the remaining cool-down to the operator.
func (g *contentionGuard) Check(pending schema.PendingCommand) (string, bool) {
	class := g.class(pending)
	if class == "" || g.cooldown <= 0 {
		return "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	last, ran := g.lastRun[class]
	if !ran {
		return "", false
	}
	elapsed := g.clock.Now().Sub(last)
	if elapsed >= g.cooldown {
		return "", false
	}

	message := fmt.Sprintf("skipped: %s is one half of a redundant pair and was restarted %s ago; next restart allowed in %s",
		pending.Parameters["unit"],
		elapsed.Round(time.Second),
		(g.cooldown - elapsed).Round(time.Second),
	)
	return message, true
}

// Record notes that the command's class just ran, starting its
// cool-down window. Unguarded commands are ignored.
func (g *contentionGuard) Record(pending schema.PendingCommand) {
	class := g.class(pending)
	if class == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastRun[class] = g.clock.Now()
}
