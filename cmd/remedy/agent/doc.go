// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the "remedy agent" command group: local
// inspection of the agent daemon over its Unix admin socket. Unlike
// the actions and hosts groups these commands never contact the hub.
package agent
