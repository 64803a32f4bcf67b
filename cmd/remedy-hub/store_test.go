// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/remedy/lib/clock"
	"github.com/bureau-foundation/remedy/lib/schema"
)

var storeTestEpoch = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) (*Store, *clock.FakeClock) {
	t.Helper()

	fakeClock := clock.Fake(storeTestEpoch)
	store, err := OpenStore(StoreConfig{
		Path:     filepath.Join(t.TempDir(), "hub_test.db"),
		PoolSize: 4,
		Clock:    fakeClock,
		Logger:   testLogger(t),
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("store.Close: %v", err)
		}
	})
	return store, fakeClock
}

// restartAction builds a NewAction for restarting a unit, the way the
// dashboard handler would from typed parameters.
func restartAction(host, unit string, status schema.ActionStatus) NewAction {
	return NewAction{
		Host:       host,
		Type:       schema.ActionRestartService,
		Command:    "systemctl restart " + unit,
		Parameters: map[string]string{"unit": unit},
		DedupeKey:  string(schema.ActionRestartService) + ":" + unit,
		Origin:     schema.OriginManual,
		Status:     status,
	}
}

func mustCreate(t *testing.T, store *Store, newAction NewAction) schema.Action {
	t.Helper()
	action, err := store.CreateAction(context.Background(), newAction)
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	return action
}

func TestCreateAndGetAction(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	created := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))
	if created.ID == 0 {
		t.Fatal("created action has zero id")
	}
	if !created.CreatedAt.Equal(storeTestEpoch) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, storeTestEpoch)
	}

	got, err := store.GetAction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.Host != "web-01" || got.Type != schema.ActionRestartService {
		t.Errorf("got %q %q, want web-01 restart_service", got.Host, got.Type)
	}
	if got.Command != "systemctl restart nginx.service" {
		t.Errorf("Command = %q", got.Command)
	}
	if got.Parameters["unit"] != "nginx.service" {
		t.Errorf("Parameters = %v", got.Parameters)
	}
	if got.Status != schema.StatusPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.Origin != schema.OriginManual {
		t.Errorf("Origin = %q, want manual", got.Origin)
	}
	if !got.CreatedAt.Equal(storeTestEpoch) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, storeTestEpoch)
	}
	if got.ExecutedAt != nil || got.CompletedAt != nil || got.ExitCode != nil {
		t.Error("result fields set on a fresh action")
	}
}

func TestGetActionNotFound(t *testing.T) {
	store, _ := openTestStore(t)

	_, err := store.GetAction(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateActionValidation(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*NewAction)
	}{
		{"missing host", func(n *NewAction) { n.Host = "" }},
		{"unknown type", func(n *NewAction) { n.Type = "reboot_everything" }},
		{"missing command", func(n *NewAction) { n.Command = "" }},
		{"missing dedupe key", func(n *NewAction) { n.DedupeKey = "" }},
		{"unknown origin", func(n *NewAction) { n.Origin = "robot" }},
		{"executing initial status", func(n *NewAction) { n.Status = schema.StatusExecuting }},
		{"terminal initial status", func(n *NewAction) { n.Status = schema.StatusCompleted }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			newAction := restartAction("web-01", "nginx.service", schema.StatusPending)
			test.mutate(&newAction)
			if _, err := store.CreateAction(ctx, newAction); err == nil {
				t.Error("CreateAction accepted invalid input")
			}
		})
	}
}

func TestCreateActionDuplicate(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))

	// Same host, same operation: conflict.
	_, err := store.CreateAction(ctx, restartAction("web-01", "nginx.service", schema.StatusPending))
	if !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("duplicate err = %v, want ErrDuplicateAction", err)
	}

	// Same operation on another host is independent.
	mustCreate(t, store, restartAction("web-02", "nginx.service", schema.StatusPending))

	// A different unit on the same host is a different operation.
	mustCreate(t, store, restartAction("web-01", "postgresql.service", schema.StatusPending))
}

func TestCreateActionDuplicateSpansLifecycle(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))

	// Approved and executing both block a second copy.
	if _, err := store.CreateAction(ctx, restartAction("web-01", "nginx.service", schema.StatusPending)); !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("while approved: err = %v, want ErrDuplicateAction", err)
	}
	if err := store.MarkExecuting(ctx, action.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}
	if _, err := store.CreateAction(ctx, restartAction("web-01", "nginx.service", schema.StatusPending)); !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("while executing: err = %v, want ErrDuplicateAction", err)
	}

	// A terminal action frees the dedupe key.
	outcome, err := store.ApplyResult(ctx, schema.CommandResult{ActionID: action.ID, ExitCode: 0})
	if err != nil || outcome != ResultApplied {
		t.Fatalf("ApplyResult = %v, %v", outcome, err)
	}
	mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))
}

func TestApproveAndReject(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))

	approved, err := store.ApproveAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("ApproveAction: %v", err)
	}
	if approved.Status != schema.StatusApproved {
		t.Errorf("Status = %q, want approved", approved.Status)
	}

	// Approving twice is a conflict, not an idempotent no-op: the
	// second operator should learn the action already moved on.
	if _, err := store.ApproveAction(ctx, action.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second approve err = %v, want ErrInvalidTransition", err)
	}

	rejected, err := store.RejectAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("RejectAction on approved: %v", err)
	}
	if rejected.Status != schema.StatusRejected {
		t.Errorf("Status = %q, want rejected", rejected.Status)
	}

	if _, err := store.RejectAction(ctx, action.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject of rejected err = %v, want ErrInvalidTransition", err)
	}
	if _, err := store.ApproveAction(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("approve unknown err = %v, want ErrNotFound", err)
	}
}

func TestRejectExecutingForbidden(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	if err := store.MarkExecuting(ctx, action.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}

	if _, err := store.RejectAction(ctx, action.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject executing err = %v, want ErrInvalidTransition", err)
	}
}

func TestNextApprovedOrdering(t *testing.T) {
	store, fakeClock := openTestStore(t)
	ctx := context.Background()

	first := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	fakeClock.Advance(time.Minute)
	mustCreate(t, store, restartAction("web-01", "postgresql.service", schema.StatusApproved))

	next, err := store.NextApproved(ctx, "web-01")
	if err != nil {
		t.Fatalf("NextApproved: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("NextApproved = %+v, want action %d", next, first.ID)
	}
}

func TestNextApprovedTieBreaksOnID(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	// Same creation instant: the fake clock does not advance between
	// creations. The lower id wins.
	first := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	second := mustCreate(t, store, restartAction("web-01", "postgresql.service", schema.StatusApproved))
	if second.ID <= first.ID {
		t.Fatalf("ids not increasing: %d then %d", first.ID, second.ID)
	}

	next, err := store.NextApproved(ctx, "web-01")
	if err != nil {
		t.Fatalf("NextApproved: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("NextApproved picked %+v, want lower id %d", next, first.ID)
	}
}

func TestNextApprovedSkipsOtherStatuses(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))

	next, err := store.NextApproved(ctx, "web-01")
	if err != nil {
		t.Fatalf("NextApproved: %v", err)
	}
	if next != nil {
		t.Errorf("NextApproved = %+v, want nil with only a pending action", next)
	}
}

func TestMarkExecuting(t *testing.T) {
	store, fakeClock := openTestStore(t)
	ctx := context.Background()

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	fakeClock.Advance(30 * time.Second)

	if err := store.MarkExecuting(ctx, action.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}

	got, err := store.GetAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.Status != schema.StatusExecuting {
		t.Errorf("Status = %q, want executing", got.Status)
	}
	wantExecutedAt := storeTestEpoch.Add(30 * time.Second)
	if got.ExecutedAt == nil || !got.ExecutedAt.Equal(wantExecutedAt) {
		t.Errorf("ExecutedAt = %v, want %v", got.ExecutedAt, wantExecutedAt)
	}

	// Idempotent: marking an executing action again succeeds and
	// leaves the original dispatch time in place.
	fakeClock.Advance(time.Minute)
	if err := store.MarkExecuting(ctx, action.ID); err != nil {
		t.Fatalf("second MarkExecuting: %v", err)
	}
	got, err = store.GetAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.ExecutedAt == nil || !got.ExecutedAt.Equal(wantExecutedAt) {
		t.Errorf("ExecutedAt moved to %v after idempotent re-mark", got.ExecutedAt)
	}
}

func TestMarkExecutingInvalidStates(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	pending := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))
	if err := store.MarkExecuting(ctx, pending.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending err = %v, want ErrInvalidTransition", err)
	}
	if err := store.MarkExecuting(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown err = %v, want ErrNotFound", err)
	}
}

func TestDispatchNext(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	// Nothing approved: nothing to dispatch.
	dispatched, err := store.DispatchNext(ctx, "web-01")
	if err != nil {
		t.Fatalf("DispatchNext: %v", err)
	}
	if dispatched != nil {
		t.Fatalf("DispatchNext = %+v with empty queue", dispatched)
	}

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))

	dispatched, err = store.DispatchNext(ctx, "web-01")
	if err != nil {
		t.Fatalf("DispatchNext: %v", err)
	}
	if dispatched == nil || dispatched.ID != action.ID {
		t.Fatalf("DispatchNext = %+v, want action %d", dispatched, action.ID)
	}
	if dispatched.Status != schema.StatusExecuting || dispatched.ExecutedAt == nil {
		t.Errorf("dispatched action not marked executing: %+v", dispatched)
	}

	// The slot is occupied: nothing more for this host, even with
	// another approved action queued.
	mustCreate(t, store, restartAction("web-01", "postgresql.service", schema.StatusApproved))
	dispatched, err = store.DispatchNext(ctx, "web-01")
	if err != nil {
		t.Fatalf("DispatchNext: %v", err)
	}
	if dispatched != nil {
		t.Fatalf("DispatchNext = %+v while slot occupied", dispatched)
	}

	// Another host is unaffected.
	other := mustCreate(t, store, restartAction("web-02", "nginx.service", schema.StatusApproved))
	dispatched, err = store.DispatchNext(ctx, "web-02")
	if err != nil {
		t.Fatalf("DispatchNext web-02: %v", err)
	}
	if dispatched == nil || dispatched.ID != other.ID {
		t.Fatalf("DispatchNext web-02 = %+v, want %d", dispatched, other.ID)
	}

	// Applying the result frees the slot for the queued action.
	if _, err := store.ApplyResult(ctx, schema.CommandResult{ActionID: action.ID, ExitCode: 0}); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	dispatched, err = store.DispatchNext(ctx, "web-01")
	if err != nil {
		t.Fatalf("DispatchNext after result: %v", err)
	}
	if dispatched == nil || dispatched.Type != schema.ActionRestartService {
		t.Fatalf("DispatchNext after result = %+v", dispatched)
	}
	if dispatched.Command != "systemctl restart postgresql.service" {
		t.Errorf("dispatched wrong action: %q", dispatched.Command)
	}
}

func TestDispatchNextConcurrent(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	for _, unit := range []string{"nginx.service", "postgresql.service", "redis.service"} {
		mustCreate(t, store, restartAction("web-01", unit, schema.StatusApproved))
	}

	const racers = 8
	var wg sync.WaitGroup
	claims := make(chan *schema.Action, racers)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatched, err := store.DispatchNext(ctx, "web-01")
			if err != nil {
				t.Errorf("DispatchNext: %v", err)
				return
			}
			claims <- dispatched
		}()
	}
	wg.Wait()
	close(claims)

	var claimed []*schema.Action
	for claim := range claims {
		if claim != nil {
			claimed = append(claimed, claim)
		}
	}
	if len(claimed) != 1 {
		t.Fatalf("%d concurrent dispatches claimed an action, want exactly 1", len(claimed))
	}

	executing, err := store.ListActions(ctx, ActionFilter{Host: "web-01", Status: schema.StatusExecuting})
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if len(executing) != 1 {
		t.Fatalf("%d actions executing, want exactly 1", len(executing))
	}
	if executing[0].ID != claimed[0].ID {
		t.Errorf("executing action %d does not match claimed %d", executing[0].ID, claimed[0].ID)
	}
}

func TestApplyResult(t *testing.T) {
	store, fakeClock := openTestStore(t)
	ctx := context.Background()

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	if err := store.MarkExecuting(ctx, action.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}

	completedAt := storeTestEpoch.Add(45 * time.Second)
	outcome, err := store.ApplyResult(ctx, schema.CommandResult{
		ActionID:    action.ID,
		ExitCode:    0,
		Stdout:      "restarted\n",
		Stderr:      "",
		ExecutedAt:  storeTestEpoch.Add(5 * time.Second),
		CompletedAt: completedAt,
	})
	if err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if outcome != ResultApplied {
		t.Fatalf("outcome = %v, want applied", outcome)
	}

	got, err := store.GetAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.Status != schema.StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.ExitCode == nil || *got.ExitCode != 0 {
		t.Errorf("ExitCode = %v, want 0", got.ExitCode)
	}
	if got.Stdout != "restarted\n" {
		t.Errorf("Stdout = %q", got.Stdout)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, completedAt)
	}
	// The dispatch-time executed_at wins over the agent's claim.
	if got.ExecutedAt == nil || !got.ExecutedAt.Equal(storeTestEpoch) {
		t.Errorf("ExecutedAt = %v, want dispatch time %v", got.ExecutedAt, storeTestEpoch)
	}

	// Nonzero exit fails the action.
	failing := mustCreate(t, store, restartAction("web-01", "postgresql.service", schema.StatusApproved))
	if err := store.MarkExecuting(ctx, failing.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}
	fakeClock.Advance(10 * time.Second)
	outcome, err = store.ApplyResult(ctx, schema.CommandResult{
		ActionID: failing.ID,
		ExitCode: 1,
		Stderr:   "Job for postgresql.service failed",
	})
	if err != nil || outcome != ResultApplied {
		t.Fatalf("ApplyResult = %v, %v", outcome, err)
	}
	got, err = store.GetAction(ctx, failing.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.Status != schema.StatusFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	// No CompletedAt in the result: the hub clock fills it.
	if got.CompletedAt == nil || !got.CompletedAt.Equal(storeTestEpoch.Add(10*time.Second)) {
		t.Errorf("CompletedAt = %v, want hub time", got.CompletedAt)
	}
}

func TestApplyResultUnknownAndStale(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	outcome, err := store.ApplyResult(ctx, schema.CommandResult{ActionID: 424242, ExitCode: 0})
	if err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if outcome != ResultUnknown {
		t.Errorf("outcome = %v, want unknown", outcome)
	}

	pending := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))
	outcome, err = store.ApplyResult(ctx, schema.CommandResult{ActionID: pending.ID, ExitCode: 0})
	if err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if outcome != ResultStale {
		t.Errorf("outcome = %v, want stale for pending action", outcome)
	}
	got, err := store.GetAction(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.Status != schema.StatusPending || got.ExitCode != nil {
		t.Errorf("stale result mutated the action: %+v", got)
	}
}

func TestApplyResultDuplicateDelivery(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	if err := store.MarkExecuting(ctx, action.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}

	first := schema.CommandResult{ActionID: action.ID, ExitCode: 0, Stdout: "ok"}
	if outcome, err := store.ApplyResult(ctx, first); err != nil || outcome != ResultApplied {
		t.Fatalf("first ApplyResult = %v, %v", outcome, err)
	}

	// The same result delivered again (lost ack) must not re-apply,
	// even with different contents.
	second := schema.CommandResult{ActionID: action.ID, ExitCode: 7, Stdout: "garbled retry"}
	outcome, err := store.ApplyResult(ctx, second)
	if err != nil {
		t.Fatalf("second ApplyResult: %v", err)
	}
	if outcome != ResultStale {
		t.Errorf("outcome = %v, want stale on duplicate", outcome)
	}

	got, err := store.GetAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.Status != schema.StatusCompleted || *got.ExitCode != 0 || got.Stdout != "ok" {
		t.Errorf("duplicate delivery overwrote the result: %+v", got)
	}
}

func TestApplyResultTruncatesOutput(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	action := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	if err := store.MarkExecuting(ctx, action.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}

	oversized := strings.Repeat("x", schema.MaxCapturedOutput+5000)
	if _, err := store.ApplyResult(ctx, schema.CommandResult{
		ActionID: action.ID,
		ExitCode: 1,
		Stdout:   oversized,
		Stderr:   oversized,
	}); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	got, err := store.GetAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if len(got.Stdout) != schema.MaxCapturedOutput {
		t.Errorf("stored stdout length = %d, want %d", len(got.Stdout), schema.MaxCapturedOutput)
	}
	if len(got.Stderr) != schema.MaxCapturedOutput {
		t.Errorf("stored stderr length = %d, want %d", len(got.Stderr), schema.MaxCapturedOutput)
	}
}

func TestReapStuckExecuting(t *testing.T) {
	store, fakeClock := openTestStore(t)
	ctx := context.Background()

	stuck := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusApproved))
	if err := store.MarkExecuting(ctx, stuck.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}

	// A second action dispatched much later must survive the sweep.
	fakeClock.Advance(29 * time.Minute)
	fresh := mustCreate(t, store, restartAction("web-02", "nginx.service", schema.StatusApproved))
	if err := store.MarkExecuting(ctx, fresh.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}
	fakeClock.Advance(2 * time.Minute)

	reaped, err := store.ReapStuckExecuting(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("ReapStuckExecuting: %v", err)
	}
	if len(reaped) != 1 || reaped[0].ID != stuck.ID {
		t.Fatalf("reaped %+v, want exactly action %d", reaped, stuck.ID)
	}

	got, err := store.GetAction(ctx, stuck.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got.Status != schema.StatusFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	if got.ExitCode == nil || *got.ExitCode != -1 {
		t.Errorf("ExitCode = %v, want -1", got.ExitCode)
	}
	if got.Stderr != reapedStderr {
		t.Errorf("Stderr = %q, want %q", got.Stderr, reapedStderr)
	}

	survivor, err := store.GetAction(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if survivor.Status != schema.StatusExecuting {
		t.Errorf("fresh action Status = %q, want still executing", survivor.Status)
	}

	// Nothing left past the threshold.
	reaped, err = store.ReapStuckExecuting(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("second ReapStuckExecuting: %v", err)
	}
	if len(reaped) != 0 {
		t.Errorf("second sweep reaped %d actions, want 0", len(reaped))
	}
}

func TestListActionsFilter(t *testing.T) {
	store, fakeClock := openTestStore(t)
	ctx := context.Background()

	first := mustCreate(t, store, restartAction("web-01", "nginx.service", schema.StatusPending))
	fakeClock.Advance(time.Second)
	second := mustCreate(t, store, restartAction("web-01", "postgresql.service", schema.StatusApproved))
	fakeClock.Advance(time.Second)
	third := mustCreate(t, store, restartAction("web-02", "nginx.service", schema.StatusPending))

	all, err := store.ListActions(ctx, ActionFilter{})
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	// Newest first.
	if all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("order = [%d %d %d], want newest first", all[0].ID, all[1].ID, all[2].ID)
	}

	byHost, err := store.ListActions(ctx, ActionFilter{Host: "web-01"})
	if err != nil {
		t.Fatalf("ListActions by host: %v", err)
	}
	if len(byHost) != 2 {
		t.Errorf("len(byHost) = %d, want 2", len(byHost))
	}

	byStatus, err := store.ListActions(ctx, ActionFilter{Status: schema.StatusApproved})
	if err != nil {
		t.Fatalf("ListActions by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != second.ID {
		t.Errorf("byStatus = %+v, want only action %d", byStatus, second.ID)
	}

	both, err := store.ListActions(ctx, ActionFilter{Host: "web-02", Status: schema.StatusPending})
	if err != nil {
		t.Fatalf("ListActions by host+status: %v", err)
	}
	if len(both) != 1 || both[0].ID != third.ID {
		t.Errorf("both = %+v, want only action %d", both, third.ID)
	}

	limited, err := store.ListActions(ctx, ActionFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListActions limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}
}

func TestUpsertHostSeen(t *testing.T) {
	store, fakeClock := openTestStore(t)
	ctx := context.Background()

	host, err := store.UpsertHostSeen(ctx, "web-01", schema.MetricsSnapshot{
		CPUPercent:    12,
		MemoryUsedMB:  2048,
		UptimeSeconds: 86400,
		AgentVersion:  "1.0.0",
	})
	if err != nil {
		t.Fatalf("UpsertHostSeen: %v", err)
	}
	if !host.FirstSeen.Equal(storeTestEpoch) || !host.LastSeen.Equal(storeTestEpoch) {
		t.Errorf("FirstSeen/LastSeen = %v/%v, want epoch", host.FirstSeen, host.LastSeen)
	}
	if host.Metrics.CPUPercent != 12 || host.Metrics.MemoryUsedMB != 2048 {
		t.Errorf("Metrics = %+v", host.Metrics)
	}

	if err := store.SetHostMaintenance(ctx, "web-01", true); err != nil {
		t.Fatalf("SetHostMaintenance: %v", err)
	}

	fakeClock.Advance(time.Minute)
	host, err = store.UpsertHostSeen(ctx, "web-01", schema.MetricsSnapshot{
		CPUPercent:   47,
		MemoryUsedMB: 3000,
	})
	if err != nil {
		t.Fatalf("second UpsertHostSeen: %v", err)
	}
	if !host.FirstSeen.Equal(storeTestEpoch) {
		t.Errorf("FirstSeen moved to %v on update", host.FirstSeen)
	}
	if !host.LastSeen.Equal(storeTestEpoch.Add(time.Minute)) {
		t.Errorf("LastSeen = %v, want advanced", host.LastSeen)
	}
	if host.Metrics.CPUPercent != 47 {
		t.Errorf("CPUPercent = %d, want 47", host.Metrics.CPUPercent)
	}
	if !host.Maintenance {
		t.Error("maintenance flag lost on heartbeat update")
	}
}

func TestSetHostMaintenanceUnknownHost(t *testing.T) {
	store, _ := openTestStore(t)

	err := store.SetHostMaintenance(context.Background(), "ghost-01", true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMaintenanceFlags(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := store.UpsertHostSeen(ctx, "web-01", schema.MetricsSnapshot{}); err != nil {
		t.Fatalf("UpsertHostSeen: %v", err)
	}

	active, err := store.MaintenanceActive(ctx, "web-01")
	if err != nil {
		t.Fatalf("MaintenanceActive: %v", err)
	}
	if active {
		t.Error("maintenance active with no flags set")
	}

	// Host flag.
	if err := store.SetHostMaintenance(ctx, "web-01", true); err != nil {
		t.Fatalf("SetHostMaintenance: %v", err)
	}
	if active, err = store.MaintenanceActive(ctx, "web-01"); err != nil || !active {
		t.Errorf("MaintenanceActive = %v, %v after host flag", active, err)
	}
	if active, err = store.MaintenanceActive(ctx, "web-02"); err != nil || active {
		t.Errorf("MaintenanceActive = %v, %v for other host", active, err)
	}
	if err := store.SetHostMaintenance(ctx, "web-01", false); err != nil {
		t.Fatalf("SetHostMaintenance off: %v", err)
	}

	// Fleet-wide flag covers every host, including unregistered ones.
	if err := store.SetGlobalMaintenance(ctx, true); err != nil {
		t.Fatalf("SetGlobalMaintenance: %v", err)
	}
	if enabled, err := store.GlobalMaintenance(ctx); err != nil || !enabled {
		t.Errorf("GlobalMaintenance = %v, %v", enabled, err)
	}
	if active, err = store.MaintenanceActive(ctx, "web-01"); err != nil || !active {
		t.Errorf("MaintenanceActive = %v, %v under global flag", active, err)
	}
	if active, err = store.MaintenanceActive(ctx, "never-seen-host"); err != nil || !active {
		t.Errorf("MaintenanceActive = %v, %v for unregistered host under global flag", active, err)
	}

	if err := store.SetGlobalMaintenance(ctx, false); err != nil {
		t.Fatalf("SetGlobalMaintenance off: %v", err)
	}
	if active, err = store.MaintenanceActive(ctx, "web-01"); err != nil || active {
		t.Errorf("MaintenanceActive = %v, %v after clearing", active, err)
	}
}

func TestListHosts(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"web-02", "web-01", "db-01"} {
		if _, err := store.UpsertHostSeen(ctx, name, schema.MetricsSnapshot{}); err != nil {
			t.Fatalf("UpsertHostSeen %s: %v", name, err)
		}
	}

	hosts, err := store.ListHosts(ctx)
	if err != nil {
		t.Fatalf("ListHosts: %v", err)
	}
	if len(hosts) != 3 {
		t.Fatalf("len(hosts) = %d, want 3", len(hosts))
	}
	if hosts[0].Name != "db-01" || hosts[1].Name != "web-01" || hosts[2].Name != "web-02" {
		t.Errorf("hosts not sorted by name: %s %s %s", hosts[0].Name, hosts[1].Name, hosts[2].Name)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	fakeClock := clock.Fake(storeTestEpoch)
	path := filepath.Join(t.TempDir(), "hub_test.db")

	store, err := OpenStore(StoreConfig{Path: path, Clock: fakeClock, Logger: testLogger(t)})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	created, err := store.CreateAction(context.Background(), restartAction("web-01", "nginx.service", schema.StatusApproved))
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenStore(StoreConfig{Path: path, Clock: fakeClock, Logger: testLogger(t)})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		if err := reopened.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	got, err := reopened.GetAction(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAction after reopen: %v", err)
	}
	if got.Status != schema.StatusApproved || got.Command != "systemctl restart nginx.service" {
		t.Errorf("restored action = %+v", got)
	}
}

func TestOpenStoreRequiresClockAndLogger(t *testing.T) {
	if _, err := OpenStore(StoreConfig{Path: "x.db", Logger: slog.Default()}); err == nil {
		t.Error("OpenStore accepted nil Clock")
	}
	if _, err := OpenStore(StoreConfig{Path: "x.db", Clock: clock.Fake(storeTestEpoch)}); err == nil {
		t.Error("OpenStore accepted nil Logger")
	}
}
