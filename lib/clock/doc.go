// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for
// testability.
//
// Production code accepts a Clock parameter instead of calling
// time.Now, time.After, time.NewTicker, or time.Sleep directly. Real()
// provides standard library behavior; Fake() provides a deterministic
// clock that advances only when the test calls Advance. Heartbeat
// loops, cool-down windows, and staleness checks are all tested this
// way, without real sleeps.
//
// When a goroutine registers a timer on a FakeClock (via Sleep, After,
// or NewTicker), use WaitForTimers to block until the registration has
// happened before advancing:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop.Run(ctx) // registers a ticker
//	c.WaitForTimers(1)
//	c.Advance(time.Minute) // fires the first tick deterministically
package clock
