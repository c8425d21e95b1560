// ABOUTME: ICS export command
// ABOUTME: Writes a user's appointment book as an iCalendar file
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/shadecal/ics"
)

// ExportCommand writes the user's appointments to a file, or stdout when --out is unset.
func ExportCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	out := fs.String("out", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	appts, err := env.Store.ListAppointments(context.Background(), *user, 0)
	if err != nil {
		return err
	}

	var w io.Writer = env.Out
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := ics.Encode(w, appts, env.now()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}

	if *out != "" {
		_, _ = fmt.Fprintf(env.Out, "✓ Exported %d appointment(s) to %s\n", len(appts), *out)
	}
	return nil
}
