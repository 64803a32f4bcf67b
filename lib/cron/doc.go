// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron parses standard 5-field cron expressions and answers
// two questions about them: when is the next occurrence after a given
// time ([Schedule.Next]), and does a recurring window opened at each
// occurrence cover a given time ([Window.Active]).
//
// Supported syntax:
//
//	┌───────────── minute (0-59)
//	│ ┌───────────── hour (0-23)
//	│ │ ┌───────────── day of month (1-31)
//	│ │ │ ┌───────────── month (1-12)
//	│ │ │ │ ┌───────────── day of week (0-6, 0=Sunday)
//	│ │ │ │ │
//	* * * * *
//
// Each field supports single values (5), ranges (1-5), lists (1,3,5),
// steps (*/15, 1-30/5), and the wildcard. All times are UTC; there is
// no seconds field, no named days or months, and no @daily shortcuts.
// The hub uses Windows to decide whether a maintenance window is open
// when a new action arrives.
package cron
