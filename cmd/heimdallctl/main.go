// heimdallctl is the command-line client of the Heimdall backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spark-heimdall/heimdall/internal/cli"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	cancel()
	os.Exit(code)
}
