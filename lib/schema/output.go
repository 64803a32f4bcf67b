// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "unicode/utf8"

// MaxCapturedOutput is the per-stream bound, in bytes, on stored
// command output. Stdout and stderr are truncated to this length
// independently: once on the agent at capture time, and again by the
// hub's action store before a result is written. 10000 bytes keeps
// full records cheap to list while preserving enough context to
// diagnose a failed command.
const MaxCapturedOutput = 10000

// TruncateOutput enforces the MaxCapturedOutput bound on one output
// stream. The cut lands on a rune boundary so truncation never
// introduces invalid UTF-8: any partial rune straddling the limit is
// dropped rather than kept.
func TruncateOutput(s string) string {
	if len(s) <= MaxCapturedOutput {
		return s
	}
	truncated := s[:MaxCapturedOutput]
	for len(truncated) > 0 {
		r, size := utf8.DecodeLastRuneInString(truncated)
		if r == utf8.RuneError && size <= 1 {
			truncated = truncated[:len(truncated)-1]
			continue
		}
		break
	}
	return truncated
}
