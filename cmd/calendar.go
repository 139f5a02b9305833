package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/shared"
)

// CalendarConnect prints the consent URL for a user and opens it in a browser.
//
// The grant completes through the server's /google/callback route, so serve must be running.
func (r *Runner) CalendarConnect(ctx context.Context, cmd *cli.Command) error {
	if !r.config.Google.Configured() {
		return fmt.Errorf("%w: google client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.owner(ctx, cmd)
	if err != nil {
		return err
	}

	url, err := a.link.AuthURL(ctx, user.ID())
	if err != nil {
		return err
	}

	r.writePlain("Open this URL to connect Google Calendar for %s:\n\n%s\n", user.Email(), url)
	if cmd.Bool("no-browser") {
		return nil
	}

	if err := shared.OpenBrowser(url); err != nil {
		r.logger.Warn("could not open browser", "error", err)
	}
	return nil
}

// CalendarStatus reports whether a user has a stored credential.
func (r *Runner) CalendarStatus(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.owner(ctx, cmd)
	if err != nil {
		return err
	}

	if a.link.Connected(user) {
		return r.writePlain("✓ Google Calendar connected for %s\n", user.Email())
	}
	return r.writePlain("✗ Google Calendar not connected for %s\n", user.Email())
}

// CalendarDisconnect forgets a user's stored credential.
func (r *Runner) CalendarDisconnect(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.owner(ctx, cmd)
	if err != nil {
		return err
	}

	if err := a.link.Disconnect(ctx, user); err != nil {
		return err
	}
	return r.writePlain("✓ Google Calendar disconnected successfully\n")
}

// CalendarEvents lists the events of a user's primary calendar in a window.
func (r *Runner) CalendarEvents(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.owner(ctx, cmd)
	if err != nil {
		return err
	}

	start, end, err := r.window(cmd, a.loc)
	if err != nil {
		return err
	}

	events, err := a.bridge.GetEvents(ctx, user, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(events, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Events %s → %s (%d)", start.Format(time.DateOnly), end.Format(time.DateOnly), len(events)))
	for _, ev := range events {
		r.writePlain("%-25s %-25s %s\n", ev.Start, ev.End, ev.Title)
	}
	return nil
}

// window reads --from/--to, defaulting to now and thirty days after the start.
func (r *Runner) window(cmd *cli.Command, loc *time.Location) (time.Time, time.Time, error) {
	start := r.now()
	if v := cmd.String("from"); v != "" {
		t, err := shared.ParseTime(v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --from: %v", shared.ErrInvalidArgument, err)
		}
		start = t
	}

	end := start.AddDate(0, 0, 30)
	if v := cmd.String("to"); v != "" {
		t, err := shared.ParseTime(v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --to: %v", shared.ErrInvalidArgument, err)
		}
		end = t
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --to must be after --from", shared.ErrInvalidArgument)
	}
	return start, end, nil
}
