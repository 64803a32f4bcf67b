// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package host implements the "remedy hosts" command group (registry
// listing and per-host maintenance mode) plus the top-level "remedy
// maintenance" command for the fleet-wide flag.
package host
