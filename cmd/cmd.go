// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User email or id",
		Sources: cli.EnvVars("HUDDLE_USER"),
	}
}

func scopeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "scope",
		Usage: "Which meetings: all, upcoming or past",
		Value: "upcoming",
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}

func dbCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Database maintenance",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply pending migrations",
				Action: r.DBMigrate,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent migration",
				Action: r.DBRollback,
			},
			{
				Name:   "status",
				Usage:  "List applied migrations",
				Action: r.DBStatus,
			},
		},
	}
}

func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage API users",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user and print its API token",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name",
						Required: true,
					},
				}, outputFlags()...),
				Action: r.UsersCreate,
			},
			{
				Name:   "list",
				Usage:  "List users",
				Flags:  outputFlags(),
				Action: r.UsersList,
			},
			{
				Name:   "rotate-token",
				Usage:  "Issue a new API token for a user",
				Flags:  []cli.Flag{userFlag()},
				Action: r.UsersRotateToken,
			},
		},
	}
}

func calendarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "calendar",
		Aliases: []string{"cal"},
		Usage:   "Google Calendar connection",
		Commands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Open the Google consent screen for a user",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the URL without opening a browser",
					},
				},
				Action: r.CalendarConnect,
			},
			{
				Name:   "status",
				Usage:  "Show whether a user has a stored credential",
				Flags:  []cli.Flag{userFlag()},
				Action: r.CalendarStatus,
			},
			{
				Name:   "disconnect",
				Usage:  "Forget a user's stored credential",
				Flags:  []cli.Flag{userFlag()},
				Action: r.CalendarDisconnect,
			},
			{
				Name:  "events",
				Usage: "List events on a user's primary calendar",
				Flags: append([]cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "from",
						Usage: "Window start (default: now)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Window end (default: 30 days after start)",
					},
				}, outputFlags()...),
				Action: r.CalendarEvents,
			},
		},
	}
}

func meetingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "meetings",
		Usage: "Inspect and move meetings",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a user's meetings",
				Flags:  append([]cli.Flag{userFlag(), scopeFlag()}, outputFlags()...),
				Action: r.MeetingsList,
			},
			{
				Name:  "export",
				Usage: "Export meetings to json, csv, markdown, txt or ics",
				Flags: []cli.Flag{
					userFlag(),
					scopeFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: meetings.<ext>)",
					},
				},
				Action: r.MeetingsExport,
			},
			{
				Name:  "import",
				Usage: "Create meetings from an iCalendar file",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the .ics file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "sync",
						Usage: "Mirror each imported meeting to Google Calendar",
					},
				},
				Action: r.MeetingsImport,
			},
			{
				Name:  "sync",
				Usage: "Mirror every unsynced meeting to Google Calendar",
				Flags: append([]cli.Flag{
					userFlag(),
					scopeFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers",
						Value: 3,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Event inserts per second",
						Value: 5,
					},
				}, outputFlags()...),
				Action: r.MeetingsSync,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse meetings in an interactive terminal UI",
		Flags:  []cli.Flag{userFlag()},
		Action: r.TUI,
	}
}
