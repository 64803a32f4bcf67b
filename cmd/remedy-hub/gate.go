// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/bureau-foundation/remedy/lib/cron"
	"github.com/bureau-foundation/remedy/lib/schema"
)

// initialStatus decides a new action's starting status. Actions
// created under maintenance are approved immediately and become
// dispatchable on the host's next heartbeat; everything else starts
// pending and waits for an operator. Maintenance means the host or
// fleet-wide flag is set, or now falls inside a configured recurring
// maintenance window. Pure function, no side effects.
func initialStatus(maintenance bool, now time.Time, windows []cron.Window) schema.ActionStatus {
	if maintenance {
		return schema.StatusApproved
	}
	for _, window := range windows {
		if window.Active(now) {
			return schema.StatusApproved
		}
	}
	return schema.StatusPending
}
