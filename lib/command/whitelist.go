// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"regexp"

	"github.com/bureau-foundation/remedy/lib/schema"
)

// whitelist holds the allowed command form per action type. Patterns
// are anchored at both ends and compiled once at package init, so a
// command either matches one known shape exactly or is rejected.
//
// The parameterless patterns are literal strings. Keeping them as
// regular expressions anyway gives every type the same enforcement
// path and shows up in one table.
var whitelist = map[schema.ActionType]*regexp.Regexp{
	schema.ActionRestartService:             regexp.MustCompile(`^systemctl restart [A-Za-z0-9@._-]+$`),
	schema.ActionClearLogs:                  regexp.MustCompile(`^journalctl --vacuum-time=[0-9]+d$`),
	schema.ActionPackageUpdate:              regexp.MustCompile(`^apt-get update -q$`),
	schema.ActionPackageUpgradeAll:          regexp.MustCompile(`^apt-get upgrade -y -q$`),
	schema.ActionPackageUpgradeSecurityOnly: regexp.MustCompile(`^unattended-upgrade -v$`),
}

// Validate checks a fully-resolved command string against the
// whitelist pattern for actionType. A nil return means the command is
// safe to execute. Unknown action types never validate: an agent
// receiving a type it does not recognize must refuse it the same way
// it refuses a malformed command.
func Validate(actionType schema.ActionType, resolved string) error {
	pattern, ok := whitelist[actionType]
	if !ok {
		return fmt.Errorf("no whitelist pattern for action type %q", actionType)
	}
	if !pattern.MatchString(resolved) {
		return fmt.Errorf("command %q does not match the %s pattern", resolved, actionType)
	}
	return nil
}

// WhitelistPatterns returns the pattern source per action type, for
// the agent's admin socket and the CLI whitelist listing. The returned
// map is a copy.
func WhitelistPatterns() map[schema.ActionType]string {
	patterns := make(map[schema.ActionType]string, len(whitelist))
	for actionType, pattern := range whitelist {
		patterns[actionType] = pattern.String()
	}
	return patterns
}
