package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dalnet/pongbot/internal/irc"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "pongbot",
		Version: version,
		Usage:   "Answer content-free IRC pings with a canned reply",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./config.yaml",
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:    "foreground",
				Aliases: []string{"x"},
				Usage:   "Run in foreground (don't daemonize)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log_level from the config file (trace, debug, info, warn, error)",
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			validateCmd,
			{
				Name:  "version",
				Usage: "Print the version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("pongbot version %s\n", version)
					fmt.Printf("Built: %s\n", buildDate)
					fmt.Printf("Commit: %s\n", gitCommit)
					return nil
				},
			},
		},
	}
}
