// Package main is the entry point for the quantserver CLI.
//
// quantserver manages the lifecycle of a single trading server: start boots
// it from the newest backup snapshot, stop snapshots it and destroys it.
//
// Commands: start, stop, status, prune, version.
//
// For detailed usage information, run:
//
//	quantserver --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/quantserver/cmd/quantserver/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
