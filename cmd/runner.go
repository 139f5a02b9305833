package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/repositories"
	"github.com/desertthunder/huddle/internal/services"
	"github.com/desertthunder/huddle/internal/shared"
	"github.com/desertthunder/huddle/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client // Outbound client for Google; nil builds one from config
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        time.Now,
	}
}

// SetLogger swaps the logger used by subsequent commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, dbCommand, usersCommand, calendarCommand, meetingsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app is the wired object graph a command works against.
type app struct {
	db        *sql.DB
	users     *repositories.UserRepository
	meetings  *repositories.MeetingRepository
	link      *services.CalendarLink
	bridge    *services.SyncBridge
	scheduler *tasks.Scheduler
	loc       *time.Location
}

// open connects to the configured database, applies pending migrations and wires the services.
func (r *Runner) open() (*app, error) {
	loc, err := r.config.Server.Location()
	if err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	users := repositories.NewUserRepository(db)
	meetings := repositories.NewMeetingRepository(db)
	link := services.NewCalendarLink(r.config.Google, users, r.httpClient, r.logger)
	bridge := services.NewSyncBridge(link, loc, r.config.Google.RequestTimeout(), r.logger)

	return &app{
		db:        db,
		users:     users,
		meetings:  meetings,
		link:      link,
		bridge:    bridge,
		scheduler: tasks.NewScheduler(meetings, bridge, r.logger),
		loc:       loc,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// owner resolves the --user flag, accepted as an email address or an id.
func (a *app) owner(ctx context.Context, cmd *cli.Command) (*models.User, error) {
	ref := cmd.String("user")
	if ref == "" {
		return nil, fmt.Errorf("%w: --user is required", shared.ErrMissingArgument)
	}

	user, err := a.users.GetByEmail(ctx, ref)
	if errors.Is(err, shared.ErrNotFound) {
		user, err = a.users.Get(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %q: %w", ref, err)
	}
	return user, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
