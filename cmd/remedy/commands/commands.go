// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the remedy CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	actioncmd "github.com/bureau-foundation/remedy/cmd/remedy/action"
	agentcmd "github.com/bureau-foundation/remedy/cmd/remedy/agent"
	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
	hostcmd "github.com/bureau-foundation/remedy/cmd/remedy/host"
	"github.com/bureau-foundation/remedy/lib/version"
)

// Root builds and returns the complete remedy CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "remedy",
		Description: `Remedy: fleet remediation coordination.

Propose, approve, and track remediation actions on a fleet of hosts.
The hub never connects to agents; agents poll the hub with periodic
heartbeats, pick up approved commands, and report results on the next
beat.

Hub address resolution: the --hub flag, then the REMEDY_HUB
environment variable, then http://127.0.0.1:8471.`,
		Subcommands: []*cli.Command{
			actioncmd.Command(),
			hostcmd.Command(),
			hostcmd.MaintenanceCommand(),
			agentcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("remedy %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "See every registered host and its health",
				Command:     "remedy hosts list",
			},
			{
				Description: "Propose a service restart on a host",
				Command:     "remedy actions create --host web-3 --type restart_service --unit nginx.service",
			},
			{
				Description: "Approve a pending action for delivery",
				Command:     "remedy actions approve 42",
			},
			{
				Description: "Watch what is waiting for approval",
				Command:     "remedy actions list --status pending",
			},
			{
				Description: "Pause delivery to one host during an intervention",
				Command:     "remedy hosts maintenance web-3 on",
			},
			{
				Description: "Inspect the agent on this machine",
				Command:     "remedy agent status",
			},
		},
	}
}
