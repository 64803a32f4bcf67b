// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the shared types of the remedy protocol: the
// [Action] record and its lifecycle ([ActionStatus]), the heartbeat
// wire structures ([HeartbeatRequest], [HeartbeatResponse],
// [PendingCommand], [CommandResult]), and the host registry record
// ([Host]).
//
// The hub persists Actions; PendingCommand and CommandResult exist
// only on the wire as per-heartbeat projections of an Action. Struct
// fields carry json tags, which serve both the JSON dashboard API and
// the CBOR heartbeat channel (lib/codec falls back to json tags).
//
// This package depends on no other remedy packages.
package schema
