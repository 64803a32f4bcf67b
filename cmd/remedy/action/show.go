// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
)

// --- show ---

// showParams holds the parameters for the show command.
type showParams struct {
	cli.HubConnection
	cli.JSONOutput
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one action's full record",
		Usage:   "remedy actions show <id> [flags]",
		Description: `Display everything the hub stores about one action: the resolved
command, lifecycle timestamps, and — once the agent has reported — the
exit code and captured output.`,
		Examples: []cli.Example{
			{
				Description: "Inspect an action",
				Command:     "remedy actions show 42",
			},
			{
				Description: "Full record as JSON",
				Command:     "remedy actions show 42 --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			id, err := actionIDArg(args, "remedy actions show <id>")
			if err != nil {
				return err
			}

			client, err := params.Client()
			if err != nil {
				return err
			}
			action, err := client.GetAction(ctx, id)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(action); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "Action:\t%d\n", action.ID)
			fmt.Fprintf(writer, "Host:\t%s\n", action.Host)
			fmt.Fprintf(writer, "Type:\t%s\n", action.Type)
			fmt.Fprintf(writer, "Command:\t%s\n", action.Command)
			if len(action.Parameters) > 0 {
				fmt.Fprintf(writer, "Parameters:\t%s\n", formatParameters(action.Parameters))
			}
			fmt.Fprintf(writer, "Status:\t%s\n", action.Status)
			fmt.Fprintf(writer, "Origin:\t%s\n", action.Origin)
			fmt.Fprintf(writer, "Created:\t%s\n", action.CreatedAt.Local().Format(time.RFC3339))
			if action.ExecutedAt != nil {
				fmt.Fprintf(writer, "Executed:\t%s\n", action.ExecutedAt.Local().Format(time.RFC3339))
			}
			if action.CompletedAt != nil {
				fmt.Fprintf(writer, "Completed:\t%s\n", action.CompletedAt.Local().Format(time.RFC3339))
			}
			if action.ExitCode != nil {
				fmt.Fprintf(writer, "Exit Code:\t%d\n", *action.ExitCode)
			}
			writer.Flush()

			// Captured output goes after the table, unindented, so
			// multi-line command output stays readable.
			if action.Stdout != "" {
				fmt.Printf("\nStdout:\n%s\n", strings.TrimRight(action.Stdout, "\n"))
			}
			if action.Stderr != "" {
				fmt.Printf("\nStderr:\n%s\n", strings.TrimRight(action.Stderr, "\n"))
			}
			return nil
		},
	}
}

// actionIDArg extracts the single required <id> positional argument.
func actionIDArg(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("action id required\n\nUsage: %s", usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid action id %q", args[0])
	}
	return id, nil
}

// formatParameters formats a parameter map as "key=value, ..." in
// stable key order.
func formatParameters(parameters map[string]string) string {
	keys := make([]string, 0, len(parameters))
	for key := range parameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+parameters[key])
	}
	return strings.Join(parts, ", ")
}
