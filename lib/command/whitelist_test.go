// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"testing"

	"github.com/bureau-foundation/remedy/lib/schema"
)

func TestValidateAcceptsKnownForms(t *testing.T) {
	cases := []struct {
		actionType schema.ActionType
		resolved   string
	}{
		{schema.ActionRestartService, "systemctl restart nginx"},
		{schema.ActionRestartService, "systemctl restart getty@tty1.service"},
		{schema.ActionClearLogs, "journalctl --vacuum-time=7d"},
		{schema.ActionClearLogs, "journalctl --vacuum-time=365d"},
		{schema.ActionPackageUpdate, "apt-get update -q"},
		{schema.ActionPackageUpgradeAll, "apt-get upgrade -y -q"},
		{schema.ActionPackageUpgradeSecurityOnly, "unattended-upgrade -v"},
	}
	for _, c := range cases {
		if err := Validate(c.actionType, c.resolved); err != nil {
			t.Errorf("Validate(%s, %q) = %v, want nil", c.actionType, c.resolved, err)
		}
	}
}

func TestValidateRejectsInjection(t *testing.T) {
	cases := []struct {
		actionType schema.ActionType
		resolved   string
	}{
		{schema.ActionRestartService, "systemctl restart nginx; rm -rf /"},
		{schema.ActionRestartService, "systemctl restart nginx && reboot"},
		{schema.ActionRestartService, "systemctl restart $(hostname)"},
		{schema.ActionRestartService, "systemctl stop nginx"},
		{schema.ActionRestartService, "systemctl restart "},
		{schema.ActionClearLogs, "journalctl --vacuum-time=7d --rotate"},
		{schema.ActionClearLogs, "journalctl --vacuum-size=100M"},
		{schema.ActionPackageUpdate, "apt-get update -q; shutdown now"},
		{schema.ActionPackageUpdate, "apt-get install -y backdoor"},
		{schema.ActionPackageUpgradeAll, "apt-get upgrade -y"},
	}
	for _, c := range cases {
		if err := Validate(c.actionType, c.resolved); err == nil {
			t.Errorf("Validate(%s, %q) = nil, want error", c.actionType, c.resolved)
		}
	}
}

// The command string must match the pattern for its OWN type. A valid
// command of a different type is still a mismatch.
func TestValidateChecksTypePatternPairing(t *testing.T) {
	if err := Validate(schema.ActionClearLogs, "systemctl restart nginx"); err == nil {
		t.Error("restart command validated against clear_logs pattern")
	}
}

func TestValidateUnknownType(t *testing.T) {
	if err := Validate(schema.ActionType("reboot_host"), "reboot"); err == nil {
		t.Error("Validate accepted an unknown action type")
	}
}

func TestWhitelistPatternsCover(t *testing.T) {
	patterns := WhitelistPatterns()
	for _, actionType := range []schema.ActionType{
		schema.ActionRestartService, schema.ActionClearLogs,
		schema.ActionPackageUpdate, schema.ActionPackageUpgradeAll,
		schema.ActionPackageUpgradeSecurityOnly,
	} {
		if patterns[actionType] == "" {
			t.Errorf("no whitelist pattern exposed for %s", actionType)
		}
	}

	// Mutating the copy must not touch the enforcement table.
	patterns[schema.ActionRestartService] = ".*"
	if err := Validate(schema.ActionRestartService, "rm -rf /"); err == nil {
		t.Error("whitelist table was mutated through WhitelistPatterns copy")
	}
}
