// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// HostHealth classifies how recently a host has heartbeated. Derived
// at read time from LastSeen and the configured heartbeat interval;
// never persisted.
type HostHealth string

const (
	// HealthOnline means the last heartbeat arrived within one
	// heartbeat interval.
	HealthOnline HostHealth = "online"

	// HealthSuspect means the last heartbeat is between one and three
	// intervals old. The host may be slow, restarting, or the
	// heartbeat may have been lost in transit.
	HealthSuspect HostHealth = "suspect"

	// HealthOffline means no heartbeat for more than three intervals.
	HealthOffline HostHealth = "offline"
)

// IsKnown reports whether h is one of the defined HostHealth values.
func (h HostHealth) IsKnown() bool {
	switch h {
	case HealthOnline, HealthSuspect, HealthOffline:
		return true
	}
	return false
}

// Host is the hub's registry record for one fleet member. Hosts
// register themselves on first heartbeat; there is no enrollment step.
type Host struct {
	// Name is the host identifier agents report in HeartbeatRequest.
	Name string `json:"name"`

	// FirstSeen is when the hub first heard from this host.
	FirstSeen time.Time `json:"first_seen"`

	// LastSeen is the time of the most recent heartbeat.
	LastSeen time.Time `json:"last_seen"`

	// Maintenance reports whether the per-host maintenance flag is
	// set. While set (or while global maintenance is active), new
	// actions for this host start approved instead of pending.
	Maintenance bool `json:"maintenance"`

	// Health is the staleness classification of LastSeen, computed
	// when the record is read.
	Health HostHealth `json:"health"`

	// Metrics is the latest telemetry snapshot this host reported.
	Metrics MetricsSnapshot `json:"metrics"`
}
