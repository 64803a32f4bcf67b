// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides remedy's standard CBOR encoding configuration.
//
// Remedy uses two serialization formats with a clear boundary:
//
//   - JSON for the dashboard-facing HTTP API and CLI output.
//   - CBOR for the agent↔hub heartbeat wire and the agent's local
//     admin socket.
//
// This package holds the shared CBOR encoding and decoding modes so
// every package encodes identically without duplicating configuration.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// fxamacker/cbor v2 reads `json` tags as a fallback when `cbor` tags
// are absent, so a single `json` tag controls field naming and
// omitempty for both formats. Types that cross the JSON/CBOR boundary
// (the heartbeat schema, which the dashboard also reads) carry `json`
// tags only. Types that exist solely on a CBOR wire (the admin socket
// envelope) carry `cbor` tags. Never use both tags on the same field.
package codec
