// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"time"
)

// Window is a recurring time window: at every occurrence of its
// schedule, the window opens for a fixed duration. The hub uses
// windows for scheduled maintenance, during which new actions skip
// the approval queue.
type Window struct {
	schedule Schedule
	duration time.Duration
}

// NewWindow builds a Window from a cron expression and a duration.
// The duration must be positive and at most 28 days.
func NewWindow(expression string, duration time.Duration) (Window, error) {
	schedule, err := Parse(expression)
	if err != nil {
		return Window{}, err
	}
	if duration <= 0 {
		return Window{}, fmt.Errorf("cron: window duration must be positive, got %s", duration)
	}
	if duration > 28*24*time.Hour {
		return Window{}, fmt.Errorf("cron: window duration %s exceeds 28 days", duration)
	}
	return Window{schedule: schedule, duration: duration}, nil
}

// Active reports whether now falls inside the window: some occurrence
// o of the schedule satisfies o <= now < o+duration. The interval is
// half-open, so a 4-hour window opening at 03:00 is inactive again at
// exactly 07:00.
func (w Window) Active(now time.Time) bool {
	// An occurrence covering now must lie in (now-duration, now].
	// Next scans strictly after its argument, so one call finds the
	// earliest candidate; if even that is in the future, no
	// occurrence covers now.
	occurrence, err := w.schedule.Next(now.Add(-w.duration))
	if err != nil {
		return false
	}
	return !occurrence.After(now)
}

// NextStart returns the first occurrence strictly after t.
func (w Window) NextStart(t time.Time) (time.Time, error) {
	return w.schedule.Next(t)
}

// Duration returns the length of each opening.
func (w Window) Duration() time.Duration {
	return w.duration
}
