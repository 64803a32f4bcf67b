// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for remedy packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with a time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used; everything else drives time through clock.Fake.
//
// [SocketDir] creates a short-pathed temporary directory in /tmp for
// Unix domain socket tests, because sun_path limits socket paths to
// 108 bytes and nested test tmpdirs can exceed that.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no remedy-internal dependencies.
package testutil
