// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a SQLite connection pool with the
// pragma settings used by the remedy hub: WAL journaling, NORMAL
// synchronous mode, and a busy timeout so concurrent writers queue
// rather than fail.
//
// The hub's action store opens one Pool at startup and passes schema
// creation through the OnConnect hook, so every pooled connection sees
// the same prepared database. Callers Take a connection, run their
// statements or transactions, and Put it back:
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:      cfg.DatabasePath,
//	    Logger:    logger,
//	    OnConnect: createSchema,
//	})
package sqlitepool
