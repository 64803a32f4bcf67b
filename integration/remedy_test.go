// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration_test

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/remedy/lib/schema"
)

// waitForHost blocks until hostID appears in the hub's host registry.
func waitForHost(t *testing.T, h *hub, hostID string) {
	t.Helper()
	waitFor(t, 20*time.Second, "host "+hostID+" to register", func() bool {
		var hosts []schema.Host
		if !tryGetJSON(h.baseURL+"/api/hosts", &hosts) {
			return false
		}
		for _, host := range hosts {
			if host.Name == hostID {
				return true
			}
		}
		return false
	})
}

func TestAgentRegistersWithHub(t *testing.T) {
	hub := startHub(t)
	startAgent(t, hub, "itest-reg")

	waitForHost(t, hub, "itest-reg")

	var hosts []schema.Host
	if !tryGetJSON(hub.baseURL+"/api/hosts", &hosts) {
		t.Fatal("listing hosts")
	}
	var registered schema.Host
	for _, host := range hosts {
		if host.Name == "itest-reg" {
			registered = host
		}
	}

	if registered.Health != schema.HealthOnline {
		t.Errorf("health = %q, want online", registered.Health)
	}
	if registered.Maintenance {
		t.Error("fresh host reports maintenance mode")
	}
	if registered.Metrics.AgentVersion == "" {
		t.Error("heartbeat did not carry the agent version")
	}
	if age := time.Since(registered.LastSeen); age > 10*time.Second {
		t.Errorf("last_seen is %v old, want recent", age)
	}
}

func TestActionRoundTrip(t *testing.T) {
	hub := startHub(t)
	startAgent(t, hub, "itest-run")
	waitForHost(t, hub, "itest-run")

	// The unit deliberately does not exist: restarting it is harmless
	// everywhere, fails on a systemd machine, and fails to resolve on
	// one without systemctl. Either way the agent must execute, report
	// a result, and the hub must land the action in a terminal state.
	var created schema.Action
	status := postJSON(t, hub.baseURL+"/api/actions", map[string]any{
		"host":        "itest-run",
		"action_type": "restart_service",
		"parameters":  map[string]string{"unit": "remedy-itest-missing.service"},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create: status %d, want 201", status)
	}
	if created.Status != schema.StatusPending {
		t.Fatalf("created status = %q, want pending", created.Status)
	}

	var approved schema.Action
	status = postJSON(t, fmt.Sprintf("%s/api/actions/%d/approve", hub.baseURL, created.ID), nil, &approved)
	if status != http.StatusOK {
		t.Fatalf("approve: status %d, want 200", status)
	}

	var final schema.Action
	waitFor(t, 30*time.Second, "action to reach a terminal state", func() bool {
		var current schema.Action
		if !tryGetJSON(fmt.Sprintf("%s/api/actions/%d", hub.baseURL, created.ID), &current) {
			return false
		}
		if !current.Status.Terminal() {
			return false
		}
		final = current
		return true
	})

	if final.ExitCode == nil {
		t.Error("terminal action has no exit code")
	}
	if final.ExecutedAt == nil {
		t.Error("terminal action has no executed_at")
	}
	if final.CompletedAt == nil {
		t.Error("terminal action has no completed_at")
	}
}

func TestActionsSurviveHubRestart(t *testing.T) {
	hub := startHub(t)

	// No agent: the approved action must sit in the store untouched
	// across the restart.
	var created schema.Action
	status := postJSON(t, hub.baseURL+"/api/actions", map[string]any{
		"host":        "itest-durable",
		"action_type": "restart_service",
		"parameters":  map[string]string{"unit": "nginx.service"},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create: status %d, want 201", status)
	}
	if status := postJSON(t, fmt.Sprintf("%s/api/actions/%d/approve", hub.baseURL, created.ID), nil, nil); status != http.StatusOK {
		t.Fatalf("approve: status %d, want 200", status)
	}

	hub.restart(t)

	var after schema.Action
	waitFor(t, 10*time.Second, "action to be readable after restart", func() bool {
		return tryGetJSON(fmt.Sprintf("%s/api/actions/%d", hub.baseURL, created.ID), &after)
	})
	if after.Status != schema.StatusApproved {
		t.Errorf("status after restart = %q, want approved", after.Status)
	}
	if after.Command != created.Command {
		t.Errorf("command after restart = %q, want %q", after.Command, created.Command)
	}
}

func TestOperatorJourney(t *testing.T) {
	hub := startHub(t)
	agent := startAgent(t, hub, "itest-cli")
	waitForHost(t, hub, "itest-cli")

	// The hosts table shows the agent.
	var hosts []schema.Host
	runRemedyJSON(t, &hosts, "hosts", "list", "--hub", hub.baseURL)
	found := false
	for _, host := range hosts {
		if host.Name == "itest-cli" {
			found = true
		}
	}
	if !found {
		t.Fatalf("hosts list has %d hosts, none named itest-cli", len(hosts))
	}

	// Create and approve through the CLI.
	var created schema.Action
	runRemedyJSON(t, &created, "actions", "create",
		"--hub", hub.baseURL,
		"--host", "itest-cli",
		"--type", "restart_service",
		"--unit", "remedy-itest-cli.service")
	if created.Status != schema.StatusPending {
		t.Fatalf("created status = %q, want pending", created.Status)
	}

	id := strconv.FormatInt(created.ID, 10)
	var approved schema.Action
	runRemedyJSON(t, &approved, "actions", "approve", id, "--hub", hub.baseURL)
	if approved.Status != schema.StatusApproved {
		t.Fatalf("approved status = %q, want approved", approved.Status)
	}

	var final schema.Action
	waitFor(t, 30*time.Second, "action to finish", func() bool {
		var current schema.Action
		if !tryGetJSON(fmt.Sprintf("%s/api/actions/%d", hub.baseURL, created.ID), &current) {
			return false
		}
		if !current.Status.Terminal() {
			return false
		}
		final = current
		return true
	})

	// show renders the stored outcome.
	output := runRemedy(t, "actions", "show", id, "--hub", hub.baseURL)
	if !strings.Contains(output, string(final.Status)) {
		t.Errorf("show output missing status %q:\n%s", final.Status, output)
	}

	// The admin socket reports heartbeat progress.
	var status struct {
		HostID     string `json:"host_id"`
		Heartbeats uint64 `json:"heartbeats"`
	}
	runRemedyJSON(t, &status, "agent", "status", "--socket", agent.socketPath)
	if status.HostID != "itest-cli" {
		t.Errorf("agent status host = %q, want itest-cli", status.HostID)
	}
	if status.Heartbeats == 0 {
		t.Error("agent status reports zero heartbeats")
	}
}
