// ABOUTME: Appointment CLI commands
// ABOUTME: Human-friendly commands for adding, listing, and deleting appointments
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/shadecal/models"
)

var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// parseLocalTime reads a timestamp, interpreting zone-less input in loc.
func parseLocalTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD HH:MM", s)
}

func splitEmails(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AddAppointmentCommand adds a local appointment. It reaches the provider on the next push.
func AddAppointmentCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	title := fs.String("title", "", "Title (required)")
	start := fs.String("start", "", "Start time, RFC 3339 or YYYY-MM-DD HH:MM (required)")
	duration := fs.Duration("duration", time.Hour, "Length of the appointment")
	kind := fs.String("type", models.AppointmentConsultation, "measure, install, consultation, follow_up, or personal")
	location := fs.String("location", "", "Address or place")
	description := fs.String("description", "", "Notes")
	clients := fs.String("clients", "", "Comma-separated client emails")
	color := fs.String("color", "", "Display color")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *user == "" || *title == "" || *start == "" {
		return fmt.Errorf("--user, --title, and --start are required")
	}
	if !models.IsValidAppointmentType(*kind) {
		return fmt.Errorf("invalid --type %q", *kind)
	}
	if *duration <= 0 {
		return fmt.Errorf("--duration must be positive")
	}

	startTime, err := parseLocalTime(*start, env.Location)
	if err != nil {
		return err
	}

	a := &models.Appointment{
		UserID:              *user,
		Title:               *title,
		Description:         *description,
		Location:            *location,
		StartTime:           startTime,
		EndTime:             startTime.Add(*duration),
		AppointmentType:     *kind,
		Color:               *color,
		InvitedClientEmails: splitEmails(*clients),
	}
	if err := env.Store.CreateAppointment(context.Background(), a); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	_, _ = fmt.Fprintf(env.Out, "✓ Appointment created: %s (ID: %s)\n", a.Title, a.ID)
	_, _ = fmt.Fprintf(env.Out, "  When: %s\n", a.StartTime.In(env.Location).Format("Mon Jan 2 15:04"))
	if len(a.InvitedClientEmails) > 0 {
		_, _ = fmt.Fprintf(env.Out, "  Clients: %s\n", strings.Join(a.InvitedClientEmails, ", "))
	}
	return nil
}

// ListAppointmentsCommand lists a user's appointments.
func ListAppointmentsCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	days := fs.Int("days", 0, "Only appointments starting in the next N days")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	ctx := context.Background()
	var (
		appts []models.Appointment
		err   error
	)
	if *days > 0 {
		now := env.now()
		appts, err = env.Store.ListAppointmentsBetween(ctx, *user, now, now.AddDate(0, 0, *days))
	} else {
		appts, err = env.Store.ListAppointments(ctx, *user, *limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}

	if len(appts) == 0 {
		_, _ = fmt.Fprintln(env.Out, "No appointments found")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tWHEN\tTYPE\tTITLE\tSOURCE")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t-----\t------")
	for _, a := range appts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.ID.String()[:8],
			a.StartTime.In(env.Location).Format("2006-01-02 15:04"),
			a.AppointmentType,
			a.Title,
			source(a),
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(env.Out, "\nTotal: %d appointment(s)\n", len(appts))
	return nil
}

func source(a models.Appointment) string {
	switch {
	case a.NylasEventID != nil:
		return "nylas"
	case a.GoogleEventID != nil:
		return "google"
	}
	return "local"
}

// DeleteAppointmentCommand removes a local appointment. The provider copy is left alone.
func DeleteAppointmentCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "Appointment ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	appointmentID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid appointment ID: %w", err)
	}

	ctx := context.Background()
	a, err := env.Store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("appointment not found: %s", *id)
	}

	if err := env.Store.DeleteAppointment(ctx, appointmentID); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	_, _ = fmt.Fprintf(env.Out, "✓ Appointment deleted: %s\n", a.Title)
	if !a.IsLocalOnly() {
		_, _ = fmt.Fprintln(env.Out, hintStyle.Render("  The calendar provider still has this event; the next pull will bring it back unless it is removed there too."))
	}
	return nil
}
