// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
	"github.com/bureau-foundation/remedy/lib/schema"
)

// --- create ---

// createParams holds the parameters for the create command.
type createParams struct {
	cli.HubConnection
	cli.JSONOutput
	Host          string `flag:"host"            desc:"target host (required)"`
	Type          string `flag:"type"            desc:"action type: restart_service, clear_logs, package_update, package_upgrade_all, package_upgrade_security_only (required)"`
	Unit          string `flag:"unit"            desc:"systemd unit name (restart_service)"`
	OlderThanDays int    `flag:"older-than-days" desc:"journal retention in days (clear_logs)"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Queue a new remediation action",
		Usage:   "remedy actions create --host <host> --type <type> [flags]",
		Description: `Queue one remediation on one host. The hub resolves the typed
parameters into the exact command the agent will run; free-form
command strings are never accepted.

New actions start pending and wait for approval, unless the target
host is in maintenance mode or a configured maintenance window is
open, in which case they start approved. A host holds at most one
live action per operation: creating a duplicate while the first is
still pending, approved, or executing is a conflict.`,
		Examples: []cli.Example{
			{
				Description: "Restart nginx on web-01",
				Command:     "remedy actions create --host web-01 --type restart_service --unit nginx.service",
			},
			{
				Description: "Trim db-03's journal to one week",
				Command:     "remedy actions create --host db-03 --type clear_logs --older-than-days 7",
			},
			{
				Description: "Refresh the package index on cache-02",
				Command:     "remedy actions create --host cache-02 --type package_update",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if params.Host == "" {
				return fmt.Errorf("--host is required")
			}
			if params.Type == "" {
				return fmt.Errorf("--type is required")
			}

			parameters := map[string]string{}
			if params.Unit != "" {
				parameters["unit"] = params.Unit
			}
			if params.OlderThanDays > 0 {
				parameters["older_than_days"] = strconv.Itoa(params.OlderThanDays)
			}

			client, err := params.Client()
			if err != nil {
				return err
			}
			action, err := client.CreateAction(ctx, cli.CreateActionRequest{
				Host:       params.Host,
				ActionType: params.Type,
				Parameters: parameters,
				Origin:     string(schema.OriginManual),
			})
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(action); done {
				return err
			}

			fmt.Printf("action %d created: %s on %s (%s)\n", action.ID, action.Type, action.Host, action.Status)
			if action.Status == schema.StatusPending {
				fmt.Printf("approve with: remedy actions approve %d\n", action.ID)
			}
			return nil
		},
	}
}
