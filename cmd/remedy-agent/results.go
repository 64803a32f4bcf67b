// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"sync"

	"github.com/bureau-foundation/remedy/lib/schema"
)

// resultBuffer retains command results until the hub acknowledges
// them. The full set is re-sent on every heartbeat, so results survive
// failed or lost round trips; the hub applies each one at most once
// and acknowledges the rest as duplicates. The buffer does not survive
// an agent restart — the hub's execution reaper eventually fails
// actions whose results are lost that way.
type resultBuffer struct {
	mu      sync.Mutex
	pending []schema.CommandResult
}

func newResultBuffer() *resultBuffer {
	return &resultBuffer{}
}

// Add queues a result for delivery on the next heartbeat.
func (b *resultBuffer) Add(result schema.CommandResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, result)
}

// Pending returns a copy of the queued results, oldest first.
func (b *resultBuffer) Pending() []schema.CommandResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	results := make([]schema.CommandResult, len(b.pending))
	copy(results, b.pending)
	return results
}

// Acknowledge drops every queued result whose action id the hub has
// confirmed receiving.
func (b *resultBuffer) Acknowledge(ids []int64) {
	if len(ids) == 0 {
		return
	}
	acked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		acked[id] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.pending[:0]
	for _, result := range b.pending {
		if !acked[result.ActionID] {
			kept = append(kept, result)
		}
	}
	b.pending = kept
}

// Len reports the number of unacknowledged results.
func (b *resultBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
