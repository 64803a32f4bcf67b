// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/bureau-foundation/remedy/lib/schema"
)

// classifyHealth grades a host by heartbeat staleness:
//
//   - Last heartbeat within 1x interval: online
//   - Between 1x and 3x interval: suspect
//   - Older than 3x interval: offline
//
// Health is derived on read, never stored, so a host is online again
// the moment its next heartbeat lands.
func classifyHealth(lastSeen, now time.Time, interval time.Duration) schema.HostHealth {
	staleness := now.Sub(lastSeen)
	switch {
	case staleness <= interval:
		return schema.HealthOnline
	case staleness <= 3*interval:
		return schema.HealthSuspect
	default:
		return schema.HealthOffline
	}
}
