// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
	"github.com/bureau-foundation/remedy/lib/schema"
)

// --- list ---

// listParams holds the parameters for the list command.
type listParams struct {
	cli.HubConnection
	cli.JSONOutput
	Host   string `flag:"host"   desc:"only actions targeting this host"`
	Status string `flag:"status" desc:"only actions in this status (pending, approved, executing, completed, failed, rejected)"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List actions, newest first",
		Usage:   "remedy actions list [flags]",
		Description: `Display the hub's action queue, newest first. Filter by target host,
by status, or both.`,
		Examples: []cli.Example{
			{
				Description: "Everything the hub knows about",
				Command:     "remedy actions list",
			},
			{
				Description: "Pending approvals only",
				Command:     "remedy actions list --status pending",
			},
			{
				Description: "One host's history as JSON",
				Command:     "remedy actions list --host web-01 --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			status := schema.ActionStatus(params.Status)
			if params.Status != "" && !status.IsKnown() {
				return fmt.Errorf("unknown status %q (want pending, approved, executing, completed, failed, or rejected)", params.Status)
			}

			client, err := params.Client()
			if err != nil {
				return err
			}
			actions, err := client.ListActions(ctx, params.Host, status)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(actions); done {
				return err
			}

			if len(actions) == 0 {
				fmt.Fprintln(os.Stderr, "No actions.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "ID\tSTATUS\tHOST\tTYPE\tORIGIN\tAGE\tEXIT\n")
			for _, action := range actions {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					action.ID,
					action.Status,
					action.Host,
					action.Type,
					action.Origin,
					formatAge(time.Since(action.CreatedAt)),
					formatExit(action.ExitCode),
				)
			}
			writer.Flush()
			return nil
		},
	}
}

// formatAge formats how long ago something happened, coarsely: table
// readers need "is this recent", not second precision.
func formatAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours())/24)
	}
}

// formatExit renders an exit code column value: "-" until a result
// has been applied.
func formatExit(exitCode *int) string {
	if exitCode == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *exitCode)
}
