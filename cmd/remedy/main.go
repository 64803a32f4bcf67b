// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command remedy is the operator CLI for the remedy fleet
// remediation system.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/remedy/cmd/remedy/cli"
	"github.com/bureau-foundation/remedy/cmd/remedy/commands"
	"github.com/bureau-foundation/remedy/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := cli.NewCommandLogger()
	return commands.Root().Execute(ctx, os.Args[1:], logger)
}
