// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "remedy",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "hosts",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "hosts"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"hosts"}, testLogger(t)); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "hosts" {
		t.Errorf("dispatched to %q, want %q", called, "hosts")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "remedy",
		Subcommands: []*Command{
			{
				Name: "actions",
				Subcommands: []*Command{
					{
						Name: "approve",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "actions approve"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"actions", "approve", "42"}, testLogger(t)); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "actions approve" {
		t.Errorf("dispatched to %q, want %q", called, "actions approve")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "42" {
		t.Errorf("args = %v, want [42]", receivedArgs)
	}
}

func TestCommand_Execute_PassesContextAndLogger(t *testing.T) {
	type contextKey struct{}
	ctx := context.WithValue(context.Background(), contextKey{}, "marker")
	logger := testLogger(t)

	command := &Command{
		Name: "status",
		Run: func(runCtx context.Context, args []string, runLogger *slog.Logger) error {
			if runCtx.Value(contextKey{}) != "marker" {
				t.Error("Run did not receive the caller's context")
			}
			if runLogger != logger {
				t.Error("Run did not receive the caller's logger")
			}
			return nil
		},
	}

	if err := command.Execute(ctx, nil, logger); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	params := &struct {
		Socket string `flag:"socket" desc:"socket path" default:"/default.sock"`
	}{}
	var target string

	command := &Command{
		Name:   "status",
		Params: func() any { return params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--socket", "/custom.sock", "web-3"}, testLogger(t)); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Socket != "/custom.sock" {
		t.Errorf("Socket = %q, want %q", params.Socket, "/custom.sock")
	}
	if target != "web-3" {
		t.Errorf("target = %q, want %q", target, "web-3")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "list",
		Params: func() any {
			return &struct {
				Status string `flag:"status" desc:"filter by status"`
				Host   string `flag:"host" desc:"filter by host"`
			}{}
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--statsu"}, testLogger(t))
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --status") {
		t.Errorf("error = %q, want suggestion for '--status'", errStr)
	}
	// Suggestion should be on the same line as the error, not buried.
	if !strings.Contains(errStr, "statsu") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "list",
		Params: func() any {
			return &struct {
				Status string `flag:"status" desc:"filter by status"`
			}{}
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"}, testLogger(t))
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "remedy",
		Subcommands: []*Command{
			{Name: "actions"},
			{Name: "hosts"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"hsots"}, testLogger(t))
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"hosts\"") {
		t.Errorf("error = %q, want suggestion for 'hosts'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "remedy",
		Subcommands: []*Command{
			{Name: "actions"},
			{Name: "hosts"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"}, testLogger(t))
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "remedy",
				Summary: "Fleet remediation coordination",
				Subcommands: []*Command{
					{Name: "hosts", Summary: "Host registry operations"},
				},
			}

			err := root.Execute(context.Background(), []string{helpArg}, testLogger(t))
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "remedy",
		Subcommands: []*Command{
			{Name: "hosts", Summary: "Host registry operations"},
		},
	}

	err := root.Execute(context.Background(), []string{}, testLogger(t))
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "remedy",
		Description: "Fleet remediation coordination.",
		Subcommands: []*Command{
			{Name: "actions", Summary: "Propose, approve, and track remediation actions"},
			{Name: "hosts", Summary: "List registered hosts and toggle maintenance"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "See every registered host",
				Command:     "remedy hosts list",
			},
			{
				Description: "Approve a pending action",
				Command:     "remedy actions approve 42",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"Fleet remediation coordination.",
		"Usage:",
		"remedy <command> [flags]",
		"Commands:",
		"actions",
		"Propose, approve, and track remediation actions",
		"hosts",
		"List registered hosts and toggle maintenance",
		"Examples:",
		"remedy hosts list",
		"remedy actions approve 42",
		"Run 'remedy <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "status",
		Summary: "Show the local agent's runtime status",
		Usage:   "remedy agent status [flags]",
		Params: func() any {
			return &struct {
				Socket string `flag:"socket" desc:"agent admin socket"`
				JSON   bool   `flag:"json" desc:"output as JSON"`
			}{}
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"remedy agent status [flags]",
		"Flags:",
		"socket",
		"json",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "remedy"}
	actions := &Command{Name: "actions", parent: root}
	approve := &Command{Name: "approve", parent: actions}

	if got := root.fullName(); got != "remedy" {
		t.Errorf("root.fullName() = %q, want %q", got, "remedy")
	}
	if got := actions.fullName(); got != "remedy actions" {
		t.Errorf("actions.fullName() = %q, want %q", got, "remedy actions")
	}
	if got := approve.fullName(); got != "remedy actions approve" {
		t.Errorf("approve.fullName() = %q, want %q", got, "remedy actions approve")
	}
}
