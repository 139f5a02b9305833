package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/shared"
	"github.com/desertthunder/huddle/internal/ui"
)

// TUI launches the interactive terminal UI for browsing and syncing meetings.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/huddle-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.owner(ctx, cmd)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, a.scheduler, user, a.loc)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
