package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/server"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	handler := server.NewAPI(server.Deps{
		Users:       a.users,
		Link:        a.link,
		Meetings:    a.scheduler,
		Events:      a.bridge,
		Location:    a.loc,
		FrontendURL: r.config.Server.FrontendURL,
		Logger:      r.logger,
	})

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewServer(addr, handler, r.logger).Run(ctx)
}
