// ABOUTME: Appointment MCP tool handlers
// ABOUTME: Implements list_appointments over the local appointment book
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shadecal/models"
)

const defaultListLimit = 50

// AppointmentStore is the read side of the appointment book.
type AppointmentStore interface {
	ListAppointments(ctx context.Context, userID string, limit int) ([]models.Appointment, error)
	ListAppointmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Appointment, error)
}

type AppointmentHandlers struct {
	store AppointmentStore
	now   func() time.Time
}

func NewAppointmentHandlers(store AppointmentStore) *AppointmentHandlers {
	return &AppointmentHandlers{store: store, now: time.Now}
}

type ListAppointmentsInput struct {
	UserID string `json:"user_id" jsonschema:"User whose appointments to list (required)"`
	Days   int    `json:"days,omitempty" jsonschema:"Only appointments starting in the next N days"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results when days is not set (default 50)"`
}

type AppointmentOutput struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Location      string   `json:"location,omitempty"`
	Description   string   `json:"description,omitempty"`
	Clients       []string `json:"clients,omitempty"`
	NylasEventID  string   `json:"nylas_event_id,omitempty"`
	GoogleEventID string   `json:"google_event_id,omitempty"`
}

type ListAppointmentsOutput struct {
	Appointments []AppointmentOutput `json:"appointments"`
	Count        int                 `json:"count"`
}

func (h *AppointmentHandlers) ListAppointments(ctx context.Context, request *mcp.CallToolRequest, input ListAppointmentsInput) (*mcp.CallToolResult, ListAppointmentsOutput, error) {
	if input.UserID == "" {
		return nil, ListAppointmentsOutput{}, fmt.Errorf("user_id is required")
	}

	var (
		appts []models.Appointment
		err   error
	)
	if input.Days > 0 {
		now := h.now().UTC()
		appts, err = h.store.ListAppointmentsBetween(ctx, input.UserID, now, now.AddDate(0, 0, input.Days))
	} else {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultListLimit
		}
		appts, err = h.store.ListAppointments(ctx, input.UserID, limit)
	}
	if err != nil {
		return nil, ListAppointmentsOutput{}, fmt.Errorf("failed to list appointments: %w", err)
	}

	out := ListAppointmentsOutput{Appointments: make([]AppointmentOutput, 0, len(appts))}
	for _, a := range appts {
		out.Appointments = append(out.Appointments, appointmentToOutput(a))
	}
	out.Count = len(out.Appointments)

	return nil, out, nil
}

func appointmentToOutput(a models.Appointment) AppointmentOutput {
	return AppointmentOutput{
		ID:            a.ID.String(),
		Title:         a.Title,
		Type:          a.AppointmentType,
		Start:         a.StartTime.UTC().Format(time.RFC3339),
		End:           a.EndTime.UTC().Format(time.RFC3339),
		Location:      a.Location,
		Description:   a.Description,
		Clients:       a.InvitedClientEmails,
		NylasEventID:  a.EventID(models.ProviderNylas),
		GoogleEventID: a.EventID(models.ProviderGoogle),
	}
}
