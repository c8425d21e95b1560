// ABOUTME: Integration CLI commands
// ABOUTME: Links calendar providers to users and reports sync status
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/sync"
)

// ConnectIntegrationCommand links a calendar provider to a user. Nylas takes
// an existing grant; Google runs the browser OAuth flow.
func ConnectIntegrationCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	provider := fs.String("provider", string(models.ProviderNylas), "nylas or google")
	grant := fs.String("grant", "", "Nylas grant ID (required for nylas)")
	email := fs.String("email", "", "Calendar account email")
	calendarID := fs.String("calendar", models.DefaultCalendarID, "Calendar ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	p := models.Provider(*provider)
	if !p.Valid() {
		return fmt.Errorf("unknown provider %q", *provider)
	}

	ctx := context.Background()
	switch p {
	case models.ProviderNylas:
		if *grant == "" {
			return fmt.Errorf("--grant is required for nylas")
		}
	case models.ProviderGoogle:
		if err := authorizeGoogle(ctx, env, *user); err != nil {
			return err
		}
	}

	rec := &models.IntegrationRecord{
		UserID:     *user,
		Provider:   p,
		GrantID:    *grant,
		Email:      *email,
		CalendarID: *calendarID,
	}
	if err := env.Store.SaveIntegration(ctx, rec); err != nil {
		return fmt.Errorf("failed to save integration: %w", err)
	}

	_, _ = fmt.Fprintf(env.Out, "✓ Connected %s calendar for %s\n", p, *user)
	_, _ = fmt.Fprintln(env.Out, hintStyle.Render(fmt.Sprintf("Run 'shadecal sync pull --user %s' to import events.", *user)))
	return nil
}

// IntegrationStatusCommand shows linked calendars and their last sync.
func IntegrationStatusCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	user := fs.String("user", "", "Only show this user")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	states, err := env.Store.GetAllSyncStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sync states: %w", err)
	}
	byService := make(map[string]models.SyncState, len(states))
	for _, s := range states {
		byService[s.Service] = s
	}

	var users []string
	if *user != "" {
		users = []string{*user}
	} else {
		for _, p := range []models.Provider{models.ProviderNylas, models.ProviderGoogle} {
			ids, err := env.Store.ListActiveUserIDs(ctx, p)
			if err != nil {
				return err
			}
			users = append(users, ids...)
		}
		users = mergeUserIDs(users, userIDsFromStates(states))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Calendar Sync Status"))
	b.WriteString("\n\n")

	if len(users) == 0 {
		b.WriteString(hintStyle.Render("No calendars linked yet. Run 'shadecal integration connect' first."))
		b.WriteString("\n")
		_, _ = fmt.Fprint(env.Out, b.String())
		return nil
	}

	for _, u := range users {
		integrations, err := env.Store.ListIntegrations(ctx, u)
		if err != nil {
			return fmt.Errorf("failed to list integrations: %w", err)
		}

		b.WriteString(headerStyle.Render(u))
		b.WriteString("\n")
		if len(integrations) == 0 {
			b.WriteString(hintStyle.Render("  No calendars linked"))
			b.WriteString("\n\n")
			continue
		}

		for _, integ := range integrations {
			state, ok := byService[sync.SyncService(integ.Provider, integ.UserID)]

			b.WriteString("  ")
			b.WriteString(labelStyle.Render(string(integ.Provider)))
			switch {
			case !integ.IsActive:
				b.WriteString(errorStyle.Render("✗ Disconnected"))
			case ok:
				b.WriteString(statusLabel(state.Status))
			default:
				b.WriteString(statusLabel(""))
			}
			if integ.LastSyncAt != nil {
				b.WriteString(hintStyle.Render(" • Last synced " + integ.LastSyncAt.In(env.Location).Format("2006-01-02 15:04")))
			}
			if ok && state.ErrorMessage != nil && state.Status == models.SyncError {
				b.WriteString(errorStyle.Render(": " + *state.ErrorMessage))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	_, _ = fmt.Fprint(env.Out, b.String())
	return nil
}

// userIDsFromStates recovers user IDs from "provider:user" service keys.
func userIDsFromStates(states []models.SyncState) []string {
	seen := make(map[string]bool)
	var users []string
	for _, s := range states {
		_, user, ok := strings.Cut(s.Service, ":")
		if !ok || user == "" || seen[user] {
			continue
		}
		seen[user] = true
		users = append(users, user)
	}
	return users
}

func mergeUserIDs(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
