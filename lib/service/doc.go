// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the transport building blocks shared by
// remedy's long-running processes.
//
// [HTTPServer] owns listener lifecycle and graceful shutdown for the
// hub's TCP endpoint, which carries both agent heartbeats and the
// dashboard API. [VerifyRequestHMAC] checks the shared-secret
// signature agents attach to heartbeat bodies.
//
// [SocketServer] serves a one-request-per-connection CBOR protocol on
// a Unix socket; the agent exposes its local admin interface this
// way. [ServiceClient] is the matching caller side, used by the CLI.
//
// Both servers follow the same lifecycle: construct, then Serve(ctx)
// blocks until the context is cancelled and in-flight work drains.
package service
