package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("HUDDLE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := shared.ResolveConfig(configPath, ".env")
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		config = shared.DefaultConfig()
		config.ApplyEnv(os.Getenv)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "huddle",
		Usage:    "Schedule meetings and mirror them to Google Calendar",
		Version:  "0.1.0",
		Commands: runner.register(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Action: func(ctx context.Context, cmd *cli.Command, v bool) error {
					if v {
						shared.SetLogLevel(logger, log.DebugLevel)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
