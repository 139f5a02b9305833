package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/formatter"
	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
	"github.com/desertthunder/huddle/internal/tasks"
)

func scopeArg(cmd *cli.Command) (models.Scope, error) {
	scope, ok := models.ParseScope(cmd.String("scope"))
	if !ok {
		return "", fmt.Errorf("%w: scope must be one of all, upcoming, past", shared.ErrInvalidArgument)
	}
	return scope, nil
}

// MeetingsList prints a user's meetings.
func (r *Runner) MeetingsList(ctx context.Context, cmd *cli.Command) error {
	scope, err := scopeArg(cmd)
	if err != nil {
		return err
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

	meetings, err := a.scheduler.List(ctx, user, models.MeetingFilter{Scope: scope, Now: r.now()})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(meetings, cmd.Bool("pretty"))
	}

	out, err := formatter.ExportToText(meetings, a.loc)
	if err != nil {
		return err
	}
	r.writePlainHeader(fmt.Sprintf("Meetings: %s (%d)", scope, len(meetings)))
	return r.writePlain("%s", out)
}

// MeetingsExport writes a user's meetings to a file in the chosen format.
func (r *Runner) MeetingsExport(ctx context.Context, cmd *cli.Command) error {
	scope, err := scopeArg(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
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

	meetings, err := a.scheduler.List(ctx, user, models.MeetingFilter{Scope: scope, Now: r.now()})
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(meetings, format, cmd.String("output"), a.loc)
	if err != nil {
		return err
	}

	r.logger.Info("exported meetings", "count", len(meetings), "format", format, "path", path)
	return r.writePlain("✓ Exported %d meetings to %s\n", len(meetings), path)
}

// MeetingsImport creates one meeting per timed event of an iCalendar file.
//
// Invalid events are reported and skipped; the rest are still imported.
func (r *Runner) MeetingsImport(ctx context.Context, cmd *cli.Command) error {
	file, err := os.Open(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	imported, err := formatter.ParseICS(file)
	if err != nil {
		return err
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

	mirror := cmd.Bool("sync")
	created, failed := 0, 0
	for _, ev := range imported {
		result, err := a.scheduler.Create(ctx, user, tasks.MeetingInput{
			Title:       ev.Title,
			Description: ev.Description,
			StartTime:   ev.StartTime,
			EndTime:     ev.EndTime,
			Attendees:   ev.Attendees,
		}, mirror)
		if err != nil {
			failed++
			label := ev.Title
			if label == "" {
				label = ev.UID
			}
			r.writePlain("✗ %s: %v\n", label, err)
			continue
		}

		created++
		if result.CalendarError != "" {
			r.writePlain("! %s: imported, calendar sync failed: %s\n", ev.Title, result.CalendarError)
		} else {
			r.writePlain("✓ %s\n", ev.Title)
		}
	}

	r.logger.Info("imported meetings", "created", created, "failed", failed)
	return r.writePlainln("Imported %d of %d events", created, len(imported))
}

// MeetingsSync mirrors every unsynced meeting in scope to Google Calendar, printing progress as it goes.
func (r *Runner) MeetingsSync(ctx context.Context, cmd *cli.Command) error {
	scope, err := scopeArg(cmd)
	if err != nil {
		return err
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

	prog := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range prog {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := a.scheduler.SyncAll(ctx, prog, user, tasks.BulkSyncOpts{
		Scope:      scope,
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Now:        r.now(),
	})
	close(prog)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to sync with Google Calendar: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Sync complete")
	r.writePlain("Considered: %d\nSynced:     %d\nFailed:     %d\n", result.Considered, result.Synced, result.Failed)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.Title, res.Error)
		}
	}
	return nil
}
