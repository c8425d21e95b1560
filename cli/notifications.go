// ABOUTME: Notification CLI commands
// ABOUTME: Lists stored notifications and tails the broker queue
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/harperreed/shadecal/models"
)

// ListNotificationsCommand lists a user's notifications, newest first.
func ListNotificationsCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	unread := fs.Bool("unread", false, "Only unread notifications")
	limit := fs.Int("limit", 20, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	notes, err := env.Store.ListNotifications(context.Background(), *user, *unread, *limit)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		_, _ = fmt.Fprintln(env.Out, "No notifications")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tWHEN\t\tTITLE\tMESSAGE")
	for _, n := range notes {
		marker := " "
		if !n.IsRead {
			marker = "•"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			n.ID,
			n.CreatedAt.In(env.Location).Format("2006-01-02 15:04"),
			marker,
			n.Title,
			n.Message,
		)
	}
	return w.Flush()
}

// ReadNotificationCommand marks a notification as read.
func ReadNotificationCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	id := fs.String("id", "", "Notification ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	if err := env.Store.MarkNotificationRead(context.Background(), *id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Out, "✓ Marked %s as read\n", *id)
	return nil
}

// WatchNotificationsCommand tails published notifications. On a terminal
// it runs a live view; otherwise, or with --plain, it prints one block per
// notification.
func WatchNotificationsCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	user := fs.String("user", "", "Only show this user's notifications")
	plain := fs.Bool("plain", false, "Print notifications as lines instead of the live view")
	if err := fs.Parse(args); err != nil {
		return err
	}

	broker, err := env.Broker()
	if err != nil {
		return err
	}
	if broker == nil {
		return models.NewConfigurationError("RABBITMQ_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bodies, err := broker.Consume(ctx)
	if err != nil {
		return err
	}

	if !*plain && isTerminal(env.Out) {
		program := tea.NewProgram(
			newWatchModel(bodies, *user, env.Location, env.Logger),
			tea.WithContext(ctx),
			tea.WithOutput(env.Out),
		)
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("watch view failed: %w", err)
		}
		return nil
	}

	_, _ = fmt.Fprintln(env.Out, hintStyle.Render("Waiting for notifications (Ctrl+C to stop)..."))
	for {
		n, ok := nextNotification(bodies, *user, env.Logger)
		if !ok {
			return nil
		}
		_, _ = fmt.Fprint(env.Out, renderNotification(n, env.Location))
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
