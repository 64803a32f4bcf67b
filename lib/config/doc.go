// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration for the remedy hub and
// agent.
//
// Each process reads a single file, named either by its environment
// variable (REMEDY_HUB_CONFIG, REMEDY_AGENT_CONFIG) or a --config
// flag. There are no fallback locations and environment variables do
// not override individual values; the file is the whole story. The
// one expansion performed is ${VAR} / ${VAR:-default} substitution
// inside string values, which is how secrets reach the file without
// being written into it:
//
//	auth_secret: ${REMEDY_AUTH_SECRET:-}
//
// Defaults are applied before the file is read, so a minimal file
// only names what differs from DefaultHub / DefaultAgent.
package config
