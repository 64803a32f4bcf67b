// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
	"github.com/bureau-foundation/remedy/lib/schema"
)

// --- approve / reject ---

// transitionParams holds the parameters shared by approve and reject.
type transitionParams struct {
	cli.HubConnection
	cli.JSONOutput
}

func approveCommand() *cli.Command {
	var params transitionParams

	return &cli.Command{
		Name:    "approve",
		Summary: "Approve a pending action for delivery",
		Usage:   "remedy actions approve <id> [flags]",
		Description: `Move a pending action to approved. The target host's agent receives
the command on its next heartbeat. Only pending actions can be
approved; anything else is a conflict.`,
		Examples: []cli.Example{
			{
				Description: "Approve action 42",
				Command:     "remedy actions approve 42",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			return runTransition(ctx, &params, args, "approved",
				"remedy actions approve <id>",
				func(client *cli.HubClient, id int64) (schema.Action, error) {
					return client.ApproveAction(ctx, id)
				})
		},
	}
}

func rejectCommand() *cli.Command {
	var params transitionParams

	return &cli.Command{
		Name:    "reject",
		Summary: "Reject an action before it runs",
		Usage:   "remedy actions reject <id> [flags]",
		Description: `Move a pending or approved action to rejected. Rejected actions are
never delivered. An action that has already started executing cannot
be rejected; the command is gone out to the host.`,
		Examples: []cli.Example{
			{
				Description: "Reject action 42",
				Command:     "remedy actions reject 42",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			return runTransition(ctx, &params, args, "rejected",
				"remedy actions reject <id>",
				func(client *cli.HubClient, id int64) (schema.Action, error) {
					return client.RejectAction(ctx, id)
				})
		},
	}
}

// runTransition is the shared body of approve and reject: parse the id,
// apply the move, print a one-line confirmation.
func runTransition(ctx context.Context, params *transitionParams, args []string, verb, usage string, apply func(*cli.HubClient, int64) (schema.Action, error)) error {
	id, err := actionIDArg(args, usage)
	if err != nil {
		return err
	}

	client, err := params.Client()
	if err != nil {
		return err
	}
	action, err := apply(client, id)
	if err != nil {
		return err
	}

	if done, err := params.EmitJSON(action); done {
		return err
	}

	fmt.Printf("action %d %s: %s on %s\n", action.ID, verb, action.Type, action.Host)
	return nil
}
