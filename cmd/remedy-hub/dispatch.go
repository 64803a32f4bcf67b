// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/bureau-foundation/remedy/lib/schema"
)

// dispatchPending claims the host's next command and shapes it for
// the heartbeat response. It returns nil when the host's execution
// slot is occupied or nothing is approved. An executing action is
// never re-delivered; the hub hands each command to its host exactly
// once and then waits for a result.
func (h *hubServer) dispatchPending(ctx context.Context, host string) (*schema.PendingCommand, error) {
	action, err := h.store.DispatchNext(ctx, host)
	if err != nil || action == nil {
		return nil, err
	}

	h.metrics.commandsDispatched.Inc()
	h.logger.Info("command dispatched",
		"host", host,
		"action_id", action.ID,
		"action_type", action.Type,
		"command", action.Command)

	pending := projectPending(*action, h.config.CommandTimeoutSeconds)
	return &pending, nil
}

// projectPending shapes a claimed action as the wire command its host
// will execute.
func projectPending(action schema.Action, timeoutSeconds int) schema.PendingCommand {
	return schema.PendingCommand{
		ActionID:       action.ID,
		Type:           action.Type,
		Command:        action.Command,
		Parameters:     action.Parameters,
		TimeoutSeconds: timeoutSeconds,
	}
}
