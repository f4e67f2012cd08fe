package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dalnet/pongbot/internal/config"
	"github.com/dalnet/pongbot/internal/pong"
)

var validateCmd = &cli.Command{
	Name:      "validate",
	Usage:     "Validate a configuration file",
	ArgsUsage: "<config file>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf("config file path required")
		}
		return validateConfig(cmd.Args().Get(0), os.Stdout)
	},
}

func validateConfig(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "Configuration file %s is valid\n\n", path)
	fmt.Fprintf(w, "Server: %s:%d (tls: %t)\n", cfg.Server, cfg.Port, cfg.TLS)
	fmt.Fprintf(w, "Nick: %s (alternate %s)\n", cfg.Nick, cfg.Alternate)
	for _, line := range (pong.Status{Settings: cfg.Pong}).Lines() {
		fmt.Fprintln(w, line)
	}
	return nil
}
