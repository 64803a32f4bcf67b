// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
	"github.com/bureau-foundation/remedy/lib/schema"
	"github.com/bureau-foundation/remedy/lib/service"
)

const (
	// EnvAgentSocket names the environment variable consulted for the
	// agent admin socket path when --socket is not given.
	EnvAgentSocket = "REMEDY_AGENT_SOCKET"

	defaultSocketPath = "/run/remedy/agent.sock"
)

// socketParams is embedded by every agent subcommand. The socket path
// resolves in order: the --socket flag, the REMEDY_AGENT_SOCKET
// environment variable, then the packaged default.
type socketParams struct {
	SocketPath string `flag:"socket" desc:"agent admin socket (default $REMEDY_AGENT_SOCKET, then /run/remedy/agent.sock)"`
}

func (p *socketParams) path() string {
	if p.SocketPath != "" {
		return p.SocketPath
	}
	if env := os.Getenv(EnvAgentSocket); env != "" {
		return env
	}
	return defaultSocketPath
}

func (p *socketParams) client() *service.ServiceClient {
	return service.NewServiceClient(p.path())
}

// Command returns the "agent" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "agent",
		Summary: "Inspect the remedy agent on this machine",
		Description: `Query the local agent daemon over its Unix admin socket.

These commands talk to the agent running on the same machine, not to
the hub: they work even when the hub is unreachable, which is exactly
when you want to know what the agent thinks is going on.

The socket path resolves from the --socket flag, then the
REMEDY_AGENT_SOCKET environment variable, then
/run/remedy/agent.sock.`,
		Subcommands: []*cli.Command{
			statusCommand(),
			whitelistCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Show the local agent's runtime status",
				Command:     "remedy agent status",
			},
			{
				Description: "List the command patterns this agent will execute",
				Command:     "remedy agent whitelist",
			},
		},
	}
}

// --- status ---

// agentStatus mirrors the status document served by the agent's admin
// socket.
type agentStatus struct {
	HostID             string          `json:"host_id"`
	HubURL             string          `json:"hub_url"`
	AgentVersion       string          `json:"agent_version"`
	Heartbeats         uint64          `json:"heartbeats"`
	LastHeartbeat      time.Time       `json:"last_heartbeat"`
	LastHeartbeatError string          `json:"last_heartbeat_error,omitempty"`
	PendingResults     int             `json:"pending_results"`
	Executing          *executionState `json:"executing,omitempty"`
	RedundantServices  []string        `json:"redundant_services,omitempty"`
}

type executionState struct {
	ActionID int64     `json:"action_id"`
	Command  string    `json:"command"`
	Started  time.Time `json:"started"`
}

type statusParams struct {
	socketParams
	cli.JSONOutput
}

func statusCommand() *cli.Command {
	params := &statusParams{}
	return &cli.Command{
		Name:    "status",
		Summary: "Show the local agent's runtime status",
		Description: `Report the agent's identity, heartbeat history, buffered results,
and any command currently executing.

A non-empty "Last error" line means the most recent heartbeat failed;
the agent keeps polling and keeps completed results buffered until the
hub acknowledges them.`,
		Usage:  "remedy agent status [flags]",
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			var status agentStatus
			if err := params.client().Call(ctx, "status", nil, &status); err != nil {
				return fmt.Errorf("querying agent: %w", err)
			}

			if done, err := params.EmitJSON(status); done {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Host:\t%s\n", status.HostID)
			fmt.Fprintf(w, "Hub:\t%s\n", status.HubURL)
			fmt.Fprintf(w, "Version:\t%s\n", status.AgentVersion)
			fmt.Fprintf(w, "Heartbeats:\t%d\n", status.Heartbeats)
			if status.LastHeartbeat.IsZero() {
				fmt.Fprintf(w, "Last heartbeat:\tnever\n")
			} else {
				fmt.Fprintf(w, "Last heartbeat:\t%s\n", status.LastHeartbeat.Local().Format(time.RFC3339))
			}
			if status.LastHeartbeatError != "" {
				fmt.Fprintf(w, "Last error:\t%s\n", status.LastHeartbeatError)
			}
			fmt.Fprintf(w, "Pending results:\t%d\n", status.PendingResults)
			if exec := status.Executing; exec != nil {
				fmt.Fprintf(w, "Executing:\taction %d\n", exec.ActionID)
				fmt.Fprintf(w, "Command:\t%s\n", exec.Command)
				fmt.Fprintf(w, "Started:\t%s\n", exec.Started.Local().Format(time.RFC3339))
			}
			if len(status.RedundantServices) > 0 {
				fmt.Fprintf(w, "Redundant services:\t%s\n", strings.Join(status.RedundantServices, ", "))
			}
			return w.Flush()
		},
	}
}

// --- whitelist ---

type whitelistParams struct {
	socketParams
	cli.JSONOutput
}

func whitelistCommand() *cli.Command {
	params := &whitelistParams{}
	return &cli.Command{
		Name:    "whitelist",
		Summary: "Show the command patterns the local agent will execute",
		Description: `List the regular expressions the agent validates commands against.

The whitelist is compiled into the agent binary. A delivered command
that matches no pattern is refused without being spawned, and the
refusal is reported to the hub as a failed result.`,
		Usage:  "remedy agent whitelist [flags]",
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			var patterns map[schema.ActionType]string
			if err := params.client().Call(ctx, "whitelist", nil, &patterns); err != nil {
				return fmt.Errorf("querying agent: %w", err)
			}

			if done, err := params.EmitJSON(patterns); done {
				return err
			}

			types := make([]string, 0, len(patterns))
			for actionType := range patterns {
				types = append(types, string(actionType))
			}
			sort.Strings(types)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tPATTERN")
			for _, actionType := range types {
				fmt.Fprintf(w, "%s\t%s\n", actionType, patterns[schema.ActionType(actionType)])
			}
			return w.Flush()
		},
	}
}
