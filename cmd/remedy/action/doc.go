// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package action implements the "remedy actions" command group: the
// operator's interface to the hub's action queue. Create queues a
// typed remediation, approve and reject drive the approval gate, and
// list and show read the queue and finished results.
package action
