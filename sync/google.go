// ABOUTME: Google Calendar as a second remote event source for reconciliation
// ABOUTME: Handles OAuth config, token storage at XDG paths, and event listing with pagination
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/harperreed/shadecal/models"
)

const (
	googleMaxResults = 250 // Google Calendar API max per page
	googleRedirect   = "http://localhost:8085/oauth/callback"
)

// NewOAuthConfig creates the OAuth2 config for the Google Calendar API.
func NewOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  googleRedirect,
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// TokenPath returns the XDG-compliant path of a user's Google token.
func TokenPath(userID string) string {
	return filepath.Join(xdg.DataHome, "shadecal", "google", userID+".json")
}

// SaveToken saves an OAuth token with owner-only permissions.
func SaveToken(userID string, token *oauth2.Token) error {
	path := TokenPath(userID)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadToken loads a user's OAuth token.
func LoadToken(userID string) (*oauth2.Token, error) {
	f, err := os.Open(TokenPath(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

// NewCalendarService creates a Calendar API service that refreshes token as needed.
func NewCalendarService(ctx context.Context, config *oauth2.Config, token *oauth2.Token, opts ...option.ClientOption) (*calendar.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(config.Client(ctx, token))}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return service, nil
}

// GoogleSource lists events from one Google calendar.
type GoogleSource struct {
	service    *calendar.Service
	calendarID string
	logger     *log.Logger
}

func NewGoogleSource(service *calendar.Service, calendarID string, logger *log.Logger) *GoogleSource {
	if calendarID == "" {
		calendarID = models.DefaultCalendarID
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GoogleSource{service: service, calendarID: calendarID, logger: logger.WithPrefix("google")}
}

// ListEvents returns single (expanded) events starting in [from, to],
// including cancelled ones so they can be reconciled away.
func (g *GoogleSource) ListEvents(ctx context.Context, from, to time.Time) ([]models.RemoteEvent, error) {
	call := g.service.Events.List(g.calendarID).
		MaxResults(googleMaxResults).
		SingleEvents(true).
		ShowDeleted(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339))

	var events []models.RemoteEvent
	pageToken := ""
	page := 0

	for {
		page++
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, googleError(err)
		}

		for _, item := range resp.Items {
			if item == nil {
				continue
			}
			events = append(events, toRemoteEvent(item, g.calendarID))
		}
		g.logger.Debug("fetched events page", "calendar", g.calendarID, "page", page, "count", len(resp.Items))

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return events, nil
}

func googleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &models.IntegrationError{
			Provider:   models.ProviderGoogle,
			Op:         "list events",
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
		}
	}
	return fmt.Errorf("google list events failed: %w", err)
}

func toRemoteEvent(item *calendar.Event, calendarID string) models.RemoteEvent {
	ev := models.RemoteEvent{
		ID:          item.Id,
		CalendarID:  calendarID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		When:        googleWhen(item.Start, item.End),
		Status:      item.Status,
	}
	for _, a := range item.Attendees {
		// The calendar owner is not a client.
		if a == nil || a.Self {
			continue
		}
		ev.Participants = append(ev.Participants, models.Participant{
			Email:  a.Email,
			Name:   a.DisplayName,
			Status: a.ResponseStatus,
		})
	}
	return ev
}

// googleWhen maps Google start/end onto When. Google all-day end dates are
// exclusive; they are converted to the inclusive last day.
func googleWhen(start, end *calendar.EventDateTime) models.When {
	if start == nil {
		return models.When{}
	}

	if start.DateTime != "" {
		s, err := time.Parse(time.RFC3339, start.DateTime)
		if err != nil || end == nil || end.DateTime == "" {
			return models.When{}
		}
		e, err := time.Parse(time.RFC3339, end.DateTime)
		if err != nil {
			return models.When{}
		}
		return models.Timespan(s, e)
	}

	if start.Date == "" {
		return models.When{}
	}
	if end == nil || end.Date == "" {
		return models.AllDay(start.Date)
	}

	first, err1 := time.Parse(dateLayout, start.Date)
	exclusive, err2 := time.Parse(dateLayout, end.Date)
	if err1 != nil || err2 != nil {
		return models.When{}
	}
	last := exclusive.AddDate(0, 0, -1)
	if !last.After(first) {
		return models.AllDay(start.Date)
	}
	return models.DateSpan(start.Date, last.Format(dateLayout))
}
