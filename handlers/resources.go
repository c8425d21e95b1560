// ABOUTME: MCP resource handlers exposing the appointment book
// ABOUTME: Serves shadecal://appointments/{user_id} as JSON and as an ICS feed
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shadecal/ics"
)

const (
	resourceScheme = "shadecal://"
	// AppointmentsTemplate is the URI template for a user's appointment book.
	AppointmentsTemplate = "shadecal://appointments/{user_id}"
	// CalendarTemplate is the URI template for a user's ICS feed.
	CalendarTemplate = "shadecal://calendar/{user_id}"
)

type ResourceHandlers struct {
	store AppointmentStore
	now   func() time.Time
}

func NewResourceHandlers(store AppointmentStore) *ResourceHandlers {
	return &ResourceHandlers{store: store, now: time.Now}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	switch parts[0] {
	case "appointments":
		return h.readAppointments(ctx, uri, parts[1])
	case "calendar":
		return h.readCalendar(ctx, uri, parts[1])
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readAppointments(ctx context.Context, uri, userID string) (*mcp.ReadResourceResult, error) {
	appts, err := h.store.ListAppointments(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	out := make([]AppointmentOutput, 0, len(appts))
	for _, a := range appts {
		out = append(out, appointmentToOutput(a))
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal appointments: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{URI: uri, MIMEType: "application/json", Text: string(data)},
	}}, nil
}

func (h *ResourceHandlers) readCalendar(ctx context.Context, uri, userID string) (*mcp.ReadResourceResult, error) {
	appts, err := h.store.ListAppointments(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	var buf bytes.Buffer
	if err := ics.Encode(&buf, appts, h.now()); err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{URI: uri, MIMEType: "text/calendar", Text: buf.String()},
	}}, nil
}
