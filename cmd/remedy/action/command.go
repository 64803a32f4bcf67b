// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package action

import "github.com/bureau-foundation/remedy/cmd/remedy/cli"

// Command returns the "actions" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "actions",
		Summary: "Create, approve, and inspect remediation actions",
		Description: `Commands for the hub's action queue.

An action is one remediation on one host: restart a unit, vacuum the
journal, or run a package operation. Actions are created against the
hub, wait for operator approval (unless a maintenance window or
maintenance flag auto-approves them), and are delivered to the target
host's agent on its next heartbeat. The agent reports the command's
exit code and captured output back through the same channel.

All commands talk to the hub's dashboard API. The hub address comes
from --hub, the REMEDY_HUB environment variable, or the local default,
in that order.`,
		Subcommands: []*cli.Command{
			listCommand(),
			showCommand(),
			createCommand(),
			approveCommand(),
			rejectCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List actions waiting for approval",
				Command:     "remedy actions list --status pending",
			},
			{
				Description: "Queue a service restart on one host",
				Command:     "remedy actions create --host web-01 --type restart_service --unit nginx.service",
			},
			{
				Description: "Approve an action for delivery",
				Command:     "remedy actions approve 42",
			},
			{
				Description: "Inspect a finished action's output",
				Command:     "remedy actions show 42",
			},
		},
	}
}
