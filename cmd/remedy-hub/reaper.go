// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"
)

// runReaper periodically fails executing actions whose host has been
// silent longer than the grace period. The protocol never needs this:
// a host that resumes heartbeating reports its result and the normal
// ingestion path finalizes the action. The reaper only bounds how
// long a permanently dead host can hold its execution slot, and it is
// off unless the hub config sets a grace period. Blocks until ctx is
// cancelled.
func (h *hubServer) runReaper(ctx context.Context, grace time.Duration) {
	// Sweep at a quarter of the grace period so an action is failed
	// soon after crossing the threshold.
	sweep := grace / 4
	if sweep < time.Second {
		sweep = time.Second
	}

	ticker := h.clock.NewTicker(sweep)
	defer ticker.Stop()

	h.logger.Info("execution reaper running", "grace_period", grace, "sweep_interval", sweep)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.store.ReapStuckExecuting(ctx, grace); err != nil {
				if ctx.Err() != nil {
					return
				}
				h.logger.Error("reap stuck executions", "error", err)
			}
		}
	}
}
