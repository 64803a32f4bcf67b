// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"sync"

	"github.com/bureau-foundation/remedy/lib/hwinfo"
	"github.com/bureau-foundation/remedy/lib/schema"
	"github.com/bureau-foundation/remedy/lib/version"
)

// metricsSampler produces the MetricsSnapshot attached to every
// heartbeat. CPU utilization is the busy fraction between consecutive
// /proc/stat readings, so the first sample after startup reports 0%.
type metricsSampler struct {
	mu       sync.Mutex
	previous *hwinfo.CPUReading
}

func (s *metricsSampler) Sample() schema.MetricsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := hwinfo.ReadCPUStats()
	snapshot := schema.MetricsSnapshot{
		CPUPercent:    int(hwinfo.CPUPercent(s.previous, current) + 0.5),
		MemoryUsedMB:  hwinfo.MemoryUsedMB(),
		UptimeSeconds: hwinfo.UptimeSeconds(),
		AgentVersion:  version.Version,
	}
	s.previous = current
	return snapshot
}
