// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/bureau-foundation/remedy/lib/schema"
)

// Spec is one fully-parameterized remediation command before
// resolution. Implementations are small value types, one per action
// type, carrying only the parameters that type uses.
type Spec interface {
	// Type is the action type this spec resolves to.
	Type() schema.ActionType

	// Resolve validates the parameters and returns the exact command
	// string the agent will run. The returned string always matches
	// the whitelist pattern for Type.
	Resolve() (string, error)

	// DedupeKey is the logical identity of the operation. The store
	// allows at most one non-terminal action per (host, DedupeKey),
	// so two specs with the same key cannot be queued concurrently
	// for one host.
	DedupeKey() string

	// Parameters returns the inputs in wire form, for persistence and
	// display. Nil for parameterless types.
	Parameters() map[string]string
}

// unitNamePattern accepts systemd unit names: alphanumerics plus the
// separator characters units actually use (template units include @).
// Deliberately narrower than systemd's own grammar; anything the
// pattern rejects cannot reach a shell.
var unitNamePattern = regexp.MustCompile(`^[A-Za-z0-9@._-]+$`)

// RestartService restarts one systemd unit.
type RestartService struct {
	// Unit is the systemd unit name, with or without a type suffix
	// ("nginx", "postgresql@14-main.service").
	Unit string
}

func (s RestartService) Type() schema.ActionType { return schema.ActionRestartService }

func (s RestartService) Resolve() (string, error) {
	if s.Unit == "" {
		return "", fmt.Errorf("restart_service: unit is required")
	}
	if !unitNamePattern.MatchString(s.Unit) {
		return "", fmt.Errorf("restart_service: invalid unit name %q", s.Unit)
	}
	return "systemctl restart " + s.Unit, nil
}

func (s RestartService) DedupeKey() string {
	return string(schema.ActionRestartService) + ":" + s.Unit
}

func (s RestartService) Parameters() map[string]string {
	return map[string]string{"unit": s.Unit}
}

// ClearLogs vacuums the systemd journal, keeping OlderThanDays days.
type ClearLogs struct {
	// OlderThanDays is the retention window. Entries older than this
	// many days are removed. Must be at least 1.
	OlderThanDays int
}

func (s ClearLogs) Type() schema.ActionType { return schema.ActionClearLogs }

func (s ClearLogs) Resolve() (string, error) {
	if s.OlderThanDays < 1 {
		return "", fmt.Errorf("clear_logs: older_than_days must be at least 1, got %d", s.OlderThanDays)
	}
	return fmt.Sprintf("journalctl --vacuum-time=%dd", s.OlderThanDays), nil
}

// DedupeKey ignores the retention window: two journal vacuums on one
// host are the same operation regardless of how many days each keeps.
func (s ClearLogs) DedupeKey() string {
	return string(schema.ActionClearLogs)
}

func (s ClearLogs) Parameters() map[string]string {
	return map[string]string{"older_than_days": strconv.Itoa(s.OlderThanDays)}
}

// PackageUpdate refreshes the apt package index.
type PackageUpdate struct{}

func (PackageUpdate) Type() schema.ActionType { return schema.ActionPackageUpdate }

func (PackageUpdate) Resolve() (string, error) { return "apt-get update -q", nil }

func (PackageUpdate) DedupeKey() string { return string(schema.ActionPackageUpdate) }

func (PackageUpdate) Parameters() map[string]string { return nil }

// PackageUpgradeAll upgrades every installed package.
type PackageUpgradeAll struct{}

func (PackageUpgradeAll) Type() schema.ActionType { return schema.ActionPackageUpgradeAll }

func (PackageUpgradeAll) Resolve() (string, error) { return "apt-get upgrade -y -q", nil }

func (PackageUpgradeAll) DedupeKey() string { return string(schema.ActionPackageUpgradeAll) }

func (PackageUpgradeAll) Parameters() map[string]string { return nil }

// PackageUpgradeSecurityOnly applies pending security updates.
type PackageUpgradeSecurityOnly struct{}

func (PackageUpgradeSecurityOnly) Type() schema.ActionType {
	return schema.ActionPackageUpgradeSecurityOnly
}

func (PackageUpgradeSecurityOnly) Resolve() (string, error) { return "unattended-upgrade -v", nil }

func (PackageUpgradeSecurityOnly) DedupeKey() string {
	return string(schema.ActionPackageUpgradeSecurityOnly)
}

func (PackageUpgradeSecurityOnly) Parameters() map[string]string { return nil }

// FromParameters builds the Spec variant for actionType from wire-form
// parameters. This is the single entry point for untrusted input (the
// dashboard API and the CLI): unknown types and malformed parameters
// fail here, before anything is resolved or persisted.
func FromParameters(actionType schema.ActionType, params map[string]string) (Spec, error) {
	switch actionType {
	case schema.ActionRestartService:
		return RestartService{Unit: params["unit"]}, nil
	case schema.ActionClearLogs:
		raw, ok := params["older_than_days"]
		if !ok {
			return nil, fmt.Errorf("clear_logs: older_than_days is required")
		}
		days, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("clear_logs: older_than_days %q is not a number", raw)
		}
		return ClearLogs{OlderThanDays: days}, nil
	case schema.ActionPackageUpdate:
		return PackageUpdate{}, nil
	case schema.ActionPackageUpgradeAll:
		return PackageUpgradeAll{}, nil
	case schema.ActionPackageUpgradeSecurityOnly:
		return PackageUpgradeSecurityOnly{}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", actionType)
	}
}
