// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package command maps action types to concrete shell commands, in
// both directions.
//
// Construction: each action type has a [Spec] variant carrying only
// the parameters that type needs ([RestartService], [ClearLogs], the
// parameterless package operations). Resolve produces the exact
// command string; there is no string-keyed dynamic dispatch and no way
// to resolve a command form the fleet does not define. The hub builds
// Specs from API input via [FromParameters].
//
// Validation: [Validate] checks a fully-resolved command string
// against a fixed per-type regular expression whitelist. Agents run it
// on every delivered command before spawning anything, so a
// compromised or buggy hub cannot push an arbitrary command through a
// well-behaved agent.
package command
