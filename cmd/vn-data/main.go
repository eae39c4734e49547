package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"vn-data/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&symbolsCmd{out: os.Stdout}, "")
	subcommands.Register(&historicalCmd{out: os.Stdout}, "")
	subcommands.Register(&fundamentalCmd{out: os.Stdout}, "")
	subcommands.Register(&realtimeCmd{}, "")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// initialize builds the App and installs its logger as the default.
// Caller must call a.Close() when done.
func initialize() (*App, subcommands.ExitStatus) {
	a, err := InitializeApp()
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return nil, subcommands.ExitFailure
	}
	slog.SetDefault(a.Logger)
	return a, subcommands.ExitSuccess
}
