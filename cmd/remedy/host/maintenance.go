// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
)

// --- hosts maintenance ---

// maintenanceParams holds the parameters for the per-host maintenance
// command.
type maintenanceParams struct {
	cli.HubConnection
	cli.JSONOutput
}

func maintenanceCommand() *cli.Command {
	var params maintenanceParams

	return &cli.Command{
		Name:    "maintenance",
		Summary: "Toggle one host's maintenance mode",
		Usage:   "remedy hosts maintenance <host> on|off [flags]",
		Description: `Set or clear a host's maintenance flag. While the flag is set, new
actions targeting the host start approved instead of pending, so
planned work flows without per-action sign-off. Existing pending
actions are not touched.

The host must already be registered (it has heartbeated at least
once).`,
		Examples: []cli.Example{
			{
				Description: "Start planned maintenance on web-01",
				Command:     "remedy hosts maintenance web-01 on",
			},
			{
				Description: "Back to normal approvals",
				Command:     "remedy hosts maintenance web-01 off",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("host and on|off required\n\nUsage: remedy hosts maintenance <host> on|off")
			}
			name := args[0]
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}

			client, err := params.Client()
			if err != nil {
				return err
			}
			updated, err := client.SetHostMaintenance(ctx, name, enabled)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(updated); done {
				return err
			}

			state := "off"
			if updated.Maintenance {
				state = "on"
			}
			fmt.Printf("maintenance %s for %s\n", state, updated.Name)
			return nil
		},
	}
}

// --- global maintenance ---

// globalParams holds the parameters for the global maintenance command.
type globalParams struct {
	cli.HubConnection
}

// MaintenanceCommand returns the top-level "maintenance" command,
// which toggles the fleet-wide flag rather than a single host's.
func MaintenanceCommand() *cli.Command {
	var params globalParams

	return &cli.Command{
		Name:    "maintenance",
		Summary: "Toggle fleet-wide maintenance mode",
		Usage:   "remedy maintenance on|off [flags]",
		Description: `Set or clear the global maintenance flag. While it is set, every new
action on every host starts approved instead of pending — including
hosts that have not yet registered. Use for fleet-wide planned work;
for a single host, use "remedy hosts maintenance" instead.`,
		Examples: []cli.Example{
			{
				Description: "Open a fleet-wide maintenance period",
				Command:     "remedy maintenance on",
			},
			{
				Description: "Close it",
				Command:     "remedy maintenance off",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("on|off required\n\nUsage: remedy maintenance on|off")
			}
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}

			client, err := params.Client()
			if err != nil {
				return err
			}
			if err := client.SetGlobalMaintenance(ctx, enabled); err != nil {
				return err
			}

			state := "off"
			if enabled {
				state = "on"
			}
			fmt.Printf("global maintenance %s\n", state)
			return nil
		},
	}
}

// parseOnOff maps the on|off positional argument to a bool.
func parseOnOff(arg string) (bool, error) {
	switch arg {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("want on or off, got %q", arg)
	}
}
