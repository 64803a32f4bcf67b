// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for remedy
// binaries. It centralizes the one legitimate raw-stderr pattern that
// exists before the structured logger: fatal error reporting from
// main() when run() fails during startup.
package process
