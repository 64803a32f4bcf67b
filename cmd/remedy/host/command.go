// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import "github.com/bureau-foundation/remedy/cmd/remedy/cli"

// Command returns the "hosts" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "hosts",
		Summary: "Inspect fleet hosts and toggle per-host maintenance",
		Description: `Commands for the hub's host registry.

Hosts register themselves on first heartbeat; there is no enrollment
step. The hub classifies each host's health from the age of its last
heartbeat: online within one interval, suspect up to three, offline
beyond that. A host in maintenance mode has new actions auto-approved
instead of waiting for an operator.`,
		Subcommands: []*cli.Command{
			listCommand(),
			maintenanceCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List the fleet with health and metrics",
				Command:     "remedy hosts list",
			},
			{
				Description: "Put one host into maintenance mode",
				Command:     "remedy hosts maintenance web-01 on",
			},
		},
	}
}
