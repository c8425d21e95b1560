// ABOUTME: Nylas v3 calendar API client used for both pull and push directions
// ABOUTME: Pages through event listings by cursor and issues create/update calls per grant
package nylas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/harperreed/shadecal/models"
)

const (
	DefaultBaseURL = "https://api.us.nylas.com"
	pageLimit      = 200
	requestTimeout = 30 * time.Second
	// maxErrorBody bounds how much of a failed response is kept on the error.
	maxErrorBody = 4096
)

// Client talks to the Nylas REST API on behalf of any grant.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client authenticating with apiKey as a bearer token.
// An empty apiKey is accepted here and reported as a ConfigurationError on
// first use, so the server can still start for webhook handshakes.
func NewClient(apiKey, baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: apiKey,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = requestTimeout

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.WithPrefix("nylas"),
	}
}

// ListEvents returns every event on the grant's calendar starting within
// [from, to], following next_cursor until the provider stops returning one.
// A failed page aborts the whole listing.
func (c *Client) ListEvents(ctx context.Context, grantID, calendarID string, from, to time.Time) ([]models.RemoteEvent, error) {
	if err := c.checkConfigured(grantID); err != nil {
		return nil, err
	}
	if calendarID == "" {
		calendarID = models.DefaultCalendarID
	}

	var events []models.RemoteEvent
	pageToken := ""
	page := 0

	for {
		page++
		q := url.Values{}
		q.Set("calendar_id", calendarID)
		q.Set("start", strconv.FormatInt(from.Unix(), 10))
		q.Set("end", strconv.FormatInt(to.Unix(), 10))
		q.Set("limit", strconv.Itoa(pageLimit))
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var resp listEventsResponse
		if err := c.do(ctx, http.MethodGet, c.eventsPath(grantID, ""), q, nil, "list events", &resp); err != nil {
			return nil, err
		}

		for _, e := range resp.Data {
			events = append(events, e.toModel())
		}
		c.logger.Debug("fetched events page", "grant", grantID, "page", page, "count", len(resp.Data))

		pageToken = resp.NextCursor
		if pageToken == "" {
			break
		}
	}

	return events, nil
}

// CreateEvent creates an event and returns the provider-assigned id.
func (c *Client) CreateEvent(ctx context.Context, grantID, calendarID string, payload models.EventPayload) (string, error) {
	if err := c.checkConfigured(grantID); err != nil {
		return "", err
	}

	var resp eventResponse
	err := c.do(ctx, http.MethodPost, c.eventsPath(grantID, ""), calendarQuery(calendarID), toWriteEvent(payload), "create event", &resp)
	if err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", &models.IntegrationError{Provider: models.ProviderNylas, Op: "create event", StatusCode: http.StatusOK, Body: "response carried no event id"}
	}

	return resp.Data.ID, nil
}

// UpdateEvent overwrites an existing event. A vanished event surfaces as an
// IntegrationError for which IsNotFound is true.
func (c *Client) UpdateEvent(ctx context.Context, grantID, calendarID, eventID string, payload models.EventPayload) error {
	if err := c.checkConfigured(grantID); err != nil {
		return err
	}
	if eventID == "" {
		return fmt.Errorf("event id is required")
	}

	return c.do(ctx, http.MethodPut, c.eventsPath(grantID, eventID), calendarQuery(calendarID), toWriteEvent(payload), "update event", nil)
}

func (c *Client) checkConfigured(grantID string) error {
	if c.apiKey == "" {
		return models.NewConfigurationError("nylas API key is not set")
	}
	if grantID == "" {
		return models.NewConfigurationError("no nylas grant on file")
	}
	return nil
}

func (c *Client) eventsPath(grantID, eventID string) string {
	p := c.baseURL + "/v3/grants/" + url.PathEscape(grantID) + "/events"
	if eventID != "" {
		p += "/" + url.PathEscape(eventID)
	}
	return p
}

func calendarQuery(calendarID string) url.Values {
	if calendarID == "" {
		calendarID = models.DefaultCalendarID
	}
	return url.Values{"calendar_id": []string{calendarID}}
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body interface{}, op string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &models.IntegrationError{
			Provider:   models.ProviderNylas,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	return nil
}
