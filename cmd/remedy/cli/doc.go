// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the remedy
// operator CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a parameter struct
// factory ([Command.Params]), and a Run function. Commands are
// assembled into a tree in cmd/remedy/commands and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing,
// and structured help output with examples.
//
// Flags are declared as struct tags on parameter structs and bound by
// [BindFlags]; shared parameter groups ([HubConnection], [JSONOutput])
// compose by embedding. When a user types an unknown subcommand or
// flag, the framework computes Levenshtein edit distance against all
// known names and suggests the closest match (threshold: distance
// <= 3).
//
// [HubConnection] and [HubClient] give commands typed access to the
// hub's dashboard JSON API, resolving the hub base URL from --hub,
// the REMEDY_HUB environment variable, or the local default, in that
// order.
package cli
