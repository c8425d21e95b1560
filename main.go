// ABOUTME: Entry point for the shadecal CLI and service
// ABOUTME: Loads config, opens the store, and routes to subcommands
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	urfave "github.com/urfave/cli/v2"

	"github.com/harperreed/shadecal/cli"
	"github.com/harperreed/shadecal/config"
)

const version = "0.1.0"

func main() {
	var env *cli.Env

	// run adapts a flag-parsing command to urfave. Leaf commands skip urfave's
	// flag parsing so each command owns its own flag set.
	run := func(fn func(*cli.Env, []string) error) urfave.ActionFunc {
		return func(c *urfave.Context) error {
			return fn(env, c.Args().Slice())
		}
	}
	leaf := func(name, usage string, fn func(*cli.Env, []string) error) *urfave.Command {
		return &urfave.Command{Name: name, Usage: usage, SkipFlagParsing: true, Action: run(fn)}
	}

	app := &urfave.App{
		Name:    "shadecal",
		Usage:   "Keep a retailer's appointment book in sync with their calendar provider",
		Version: version,
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "config", Usage: "Config file (default: $XDG_CONFIG_HOME/shadecal/config.json)"},
			&urfave.StringFlag{Name: "db-path", Usage: "SQLite database path (default: $XDG_DATA_HOME/shadecal/shadecal.db)"},
		},
		Before: func(c *urfave.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if p := c.String("db-path"); p != "" {
				cfg.DBDriver = "sqlite3"
				cfg.DBDSN = p
			}

			logger := newLogger(cfg.LogLevel)
			log.SetDefault(logger)
			gin.SetMode(gin.ReleaseMode)

			env, err = cli.NewEnv(cfg, logger)
			return err
		},
		After: func(c *urfave.Context) error {
			if env != nil {
				return env.Close()
			}
			return nil
		},
		Commands: []*urfave.Command{
			leaf("serve", "Serve webhooks and the ICS feed; --interval adds scheduled sync", cli.ServeCommand),
			leaf("mcp", "Run the MCP server on stdio", cli.MCPCommand),
			leaf("export", "Export a user's appointments as iCalendar", cli.ExportCommand),
			{
				Name:  "sync",
				Usage: "Run sync cycles",
				Subcommands: []*urfave.Command{
					leaf("pull", "Pull provider events into the appointment book", cli.SyncPullCommand),
					leaf("push", "Push upcoming appointments to the provider", cli.SyncPushCommand),
					leaf("google", "Pull events from a linked Google calendar", cli.SyncGoogleCommand),
				},
			},
			{
				Name:    "appointments",
				Aliases: []string{"appt"},
				Usage:   "Manage local appointments",
				Subcommands: []*urfave.Command{
					leaf("add", "Add an appointment", cli.AddAppointmentCommand),
					leaf("list", "List appointments", cli.ListAppointmentsCommand),
					leaf("delete", "Delete an appointment", cli.DeleteAppointmentCommand),
				},
			},
			{
				Name:  "integration",
				Usage: "Link calendars and show sync status",
				Subcommands: []*urfave.Command{
					leaf("connect", "Link a Nylas grant or a Google calendar to a user", cli.ConnectIntegrationCommand),
					leaf("status", "Show linked calendars and their last sync", cli.IntegrationStatusCommand),
				},
			},
			{
				Name:  "notifications",
				Usage: "Read calendar notifications",
				Subcommands: []*urfave.Command{
					leaf("list", "List notifications", cli.ListNotificationsCommand),
					leaf("read", "Mark a notification as read", cli.ReadNotificationCommand),
					leaf("watch", "Print notifications as they are published", cli.WatchNotificationsCommand),
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})
}
