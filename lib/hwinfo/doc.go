// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwinfo reads host resource metrics for heartbeat reporting.
//
// All readings come from /proc and syscall.Sysinfo on Linux:
//
//   - CPU utilization from /proc/stat ([ReadCPUStats], [CPUPercent]).
//     Utilization is a delta between two readings, so the caller keeps
//     the previous reading across heartbeat intervals.
//   - Memory usage ([MemoryUsedMB]) and uptime ([UptimeSeconds]) via
//     syscall.Sysinfo.
//
// Every function degrades to a zero value on failure rather than
// returning an error: a host that cannot read its own metrics should
// still heartbeat.
package hwinfo
