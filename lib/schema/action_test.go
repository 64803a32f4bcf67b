// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestActionStatusTerminal(t *testing.T) {
	terminal := []ActionStatus{StatusCompleted, StatusFailed, StatusRejected}
	for _, status := range terminal {
		if !status.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", status)
		}
	}

	live := []ActionStatus{StatusPending, StatusApproved, StatusExecuting}
	for _, status := range live {
		if status.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", status)
		}
	}
}

func TestActionStatusIsKnown(t *testing.T) {
	known := []ActionStatus{
		StatusPending, StatusApproved, StatusExecuting,
		StatusCompleted, StatusFailed, StatusRejected,
	}
	for _, status := range known {
		if !status.IsKnown() {
			t.Errorf("%s.IsKnown() = false, want true", status)
		}
	}
	if ActionStatus("cancelled").IsKnown() {
		t.Error(`IsKnown("cancelled") = true, want false`)
	}
}

func TestActionTypeIsKnown(t *testing.T) {
	known := []ActionType{
		ActionRestartService, ActionClearLogs, ActionPackageUpdate,
		ActionPackageUpgradeAll, ActionPackageUpgradeSecurityOnly,
	}
	for _, actionType := range known {
		if !actionType.IsKnown() {
			t.Errorf("%s.IsKnown() = false, want true", actionType)
		}
	}
	if ActionType("reboot_host").IsKnown() {
		t.Error(`IsKnown("reboot_host") = true, want false`)
	}
}

func TestActionOriginIsKnown(t *testing.T) {
	if !OriginAutomatic.IsKnown() || !OriginManual.IsKnown() {
		t.Error("defined origins must be known")
	}
	if ActionOrigin("scheduled").IsKnown() {
		t.Error(`IsKnown("scheduled") = true, want false`)
	}
}

func TestActionJSONFieldNames(t *testing.T) {
	created := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	action := Action{
		ID:         42,
		Host:       "node-07",
		Type:       ActionRestartService,
		Command:    "systemctl restart nginx",
		Parameters: map[string]string{"unit": "nginx"},
		DedupeKey:  "restart_service:nginx",
		Status:     StatusPending,
		Origin:     OriginManual,
		CreatedAt:  created,
	}

	data, err := json.Marshal(action)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal to map: %v", err)
	}
	if got := raw["action_type"]; got != "restart_service" {
		t.Errorf("action_type = %v, want restart_service", got)
	}
	if got := raw["dedupe_key"]; got != "restart_service:nginx" {
		t.Errorf("dedupe_key = %v, want restart_service:nginx", got)
	}

	// Result fields are pointers so a pending action omits them
	// entirely instead of serializing zero values.
	for _, absent := range []string{"executed_at", "completed_at", "exit_code", "stdout", "stderr"} {
		if _, ok := raw[absent]; ok {
			t.Errorf("pending action serialized %q, want omitted", absent)
		}
	}

	var decoded Action
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != action.ID || decoded.Type != action.Type || decoded.DedupeKey != action.DedupeKey {
		t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, action)
	}
}
