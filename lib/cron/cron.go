// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed cron expression. The zero value matches
// nothing; use Parse.
type Schedule struct {
	minutes     bitset64
	hours       bitset64
	daysOfMonth bitset64
	months      bitset64
	daysOfWeek  bitset64
}

// bitset64 is a set of small integers packed into a uint64. Every
// cron field fits: the widest is minutes, 0-59.
type bitset64 uint64

func (b bitset64) has(value int) bool { return b&(1<<uint(value)) != 0 }
func (b *bitset64) set(value int)     { *b |= 1 << uint(value) }

// Parse parses a 5-field cron expression. Malformed fields and
// out-of-range values are errors.
func Parse(expression string) (Schedule, error) {
	fields := strings.Fields(expression)
	if len(fields) != 5 {
		return Schedule{}, fmt.Errorf("cron: expected 5 fields, got %d", len(fields))
	}

	var schedule Schedule
	specs := []struct {
		name    string
		minimum int
		maximum int
		target  *bitset64
	}{
		{"minute", 0, 59, &schedule.minutes},
		{"hour", 0, 23, &schedule.hours},
		{"day-of-month", 1, 31, &schedule.daysOfMonth},
		{"month", 1, 12, &schedule.months},
		{"day-of-week", 0, 6, &schedule.daysOfWeek},
	}
	for i, spec := range specs {
		bits, err := parseField(fields[i], spec.minimum, spec.maximum)
		if err != nil {
			return Schedule{}, fmt.Errorf("cron: %s field: %w", spec.name, err)
		}
		*spec.target = bits
	}
	return schedule, nil
}

// Next returns the earliest time strictly after t that matches the
// schedule. Computation is in UTC.
//
// The search gives up four years out, which bounds impossible
// schedules (February 31) instead of looping forever.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	// Occurrences land on whole minutes, so start the scan at the
	// minute after t.
	t = t.UTC().Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(4, 0, 0)

	for t.Before(limit) {
		if !s.months.has(int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
			continue
		}

		// A wildcard field has every bit set, so checking both day
		// constraints unconditionally gives standard cron behavior
		// for the wildcard cases without tracking which fields were
		// written as "*".
		if !s.daysOfMonth.has(t.Day()) || !s.daysOfWeek.has(int(t.Weekday())) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
			continue
		}

		if !s.hours.has(t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, time.UTC)
			continue
		}

		if !s.minutes.has(t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}

		return t, nil
	}

	return time.Time{}, fmt.Errorf("cron: no matching time within 4 years of %s", t.Format(time.RFC3339))
}

// parseField parses one comma-separated cron field into a bitset.
func parseField(field string, minimum, maximum int) (bitset64, error) {
	var result bitset64
	for _, term := range strings.Split(field, ",") {
		bits, err := parseTerm(term, minimum, maximum)
		if err != nil {
			return 0, err
		}
		result |= bits
	}
	if result == 0 {
		return 0, fmt.Errorf("field %q produces empty set", field)
	}
	return result, nil
}

// parseTerm parses a single term: *, */N, V, V-V, or V-V/N.
func parseTerm(term string, minimum, maximum int) (bitset64, error) {
	rangeExpression, stepExpression, hasStep := strings.Cut(term, "/")
	step := 1
	if hasStep {
		parsed, err := strconv.Atoi(stepExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid step %q: %w", stepExpression, err)
		}
		if parsed <= 0 {
			return 0, fmt.Errorf("step must be positive, got %d", parsed)
		}
		step = parsed
	}

	var rangeStart, rangeEnd int
	switch {
	case rangeExpression == "*":
		rangeStart, rangeEnd = minimum, maximum

	case strings.ContainsRune(rangeExpression, '-'):
		startExpression, endExpression, _ := strings.Cut(rangeExpression, "-")
		var err error
		rangeStart, err = strconv.Atoi(startExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid range start %q: %w", startExpression, err)
		}
		rangeEnd, err = strconv.Atoi(endExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid range end %q: %w", endExpression, err)
		}
		if rangeStart > rangeEnd {
			return 0, fmt.Errorf("range start %d > end %d", rangeStart, rangeEnd)
		}

	default:
		value, err := strconv.Atoi(rangeExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q: %w", rangeExpression, err)
		}
		rangeStart, rangeEnd = value, value
	}

	if rangeStart < minimum || rangeEnd > maximum {
		return 0, fmt.Errorf("value out of range [%d-%d]: got %d-%d", minimum, maximum, rangeStart, rangeEnd)
	}

	var result bitset64
	for value := rangeStart; value <= rangeEnd; value += step {
		result.set(value)
	}
	return result, nil
}
