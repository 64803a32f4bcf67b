// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
)

// --- list ---

// listParams holds the parameters for the list command.
type listParams struct {
	cli.HubConnection
	cli.JSONOutput
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List registered hosts with health and metrics",
		Usage:   "remedy hosts list [flags]",
		Description: `Display every host the hub has heard from: health classification,
time since the last heartbeat, the latest reported metrics, and the
maintenance flag.`,
		Examples: []cli.Example{
			{
				Description: "List the fleet",
				Command:     "remedy hosts list",
			},
			{
				Description: "List the fleet as JSON",
				Command:     "remedy hosts list --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			client, err := params.Client()
			if err != nil {
				return err
			}
			hosts, err := client.ListHosts(ctx)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(hosts); done {
				return err
			}

			if len(hosts) == 0 {
				fmt.Fprintln(os.Stderr, "No hosts registered.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "HOST\tHEALTH\tLAST SEEN\tCPU\tMEMORY\tUPTIME\tAGENT\tMAINT\n")
			for _, entry := range hosts {
				maintenance := "-"
				if entry.Maintenance {
					maintenance = "yes"
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%d%%\t%d MB\t%s\t%s\t%s\n",
					entry.Name,
					entry.Health,
					formatLastSeen(time.Since(entry.LastSeen)),
					entry.Metrics.CPUPercent,
					entry.Metrics.MemoryUsedMB,
					formatUptime(entry.Metrics.UptimeSeconds),
					entry.Metrics.AgentVersion,
					maintenance,
				)
			}
			writer.Flush()
			return nil
		},
	}
}

// formatLastSeen formats the age of the last heartbeat, coarsely.
func formatLastSeen(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours())/24)
	}
}

// formatUptime formats host uptime with day granularity once it
// exceeds a day.
func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
