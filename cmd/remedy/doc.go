// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Remedy is the operator CLI for a remedy deployment. It provides
// subcommands for managing remediation actions (create, approve,
// reject, list, show), for host inspection and maintenance flags
// (hosts, maintenance), and for querying the local agent daemon over
// its admin socket (agent).
package main
