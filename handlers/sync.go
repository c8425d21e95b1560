// ABOUTME: Sync MCP tool handlers
// ABOUTME: Implements sync_calendar and integration_status
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/sync"
)

// Syncer runs pull and push cycles for one user.
type Syncer interface {
	Pull(ctx context.Context, userID string) (sync.Result, error)
	Push(ctx context.Context, userID string) (sync.Result, error)
}

// StatusStore reads integration rows and per-service sync state.
type StatusStore interface {
	ListIntegrations(ctx context.Context, userID string) ([]models.IntegrationRecord, error)
	GetSyncState(ctx context.Context, service string) (*models.SyncState, error)
}

type SyncHandlers struct {
	syncer Syncer
	store  StatusStore
}

func NewSyncHandlers(syncer Syncer, store StatusStore) *SyncHandlers {
	return &SyncHandlers{syncer: syncer, store: store}
}

type SyncCalendarInput struct {
	UserID    string `json:"user_id" jsonschema:"User to sync (required)"`
	Direction string `json:"direction,omitempty" jsonschema:"pull, push, or both (default both)"`
}

type SyncCalendarOutput struct {
	Pull *sync.Result `json:"pull,omitempty"`
	Push *sync.Result `json:"push,omitempty"`
}

func (h *SyncHandlers) SyncCalendar(ctx context.Context, request *mcp.CallToolRequest, input SyncCalendarInput) (*mcp.CallToolResult, SyncCalendarOutput, error) {
	if input.UserID == "" {
		return nil, SyncCalendarOutput{}, fmt.Errorf("user_id is required")
	}

	direction := input.Direction
	if direction == "" {
		direction = "both"
	}
	if direction != "pull" && direction != "push" && direction != "both" {
		return nil, SyncCalendarOutput{}, fmt.Errorf("invalid direction %q: use pull, push, or both", direction)
	}

	var out SyncCalendarOutput
	if direction != "push" {
		res, err := h.syncer.Pull(ctx, input.UserID)
		if err != nil {
			return nil, SyncCalendarOutput{}, fmt.Errorf("pull failed: %w", err)
		}
		out.Pull = &res
	}
	if direction != "pull" {
		res, err := h.syncer.Push(ctx, input.UserID)
		if err != nil {
			return nil, out, fmt.Errorf("push failed: %w", err)
		}
		out.Push = &res
	}

	return nil, out, nil
}

type IntegrationStatusInput struct {
	UserID string `json:"user_id" jsonschema:"User whose calendar connections to show (required)"`
}

type IntegrationStatusOutput struct {
	Integrations []IntegrationOutput `json:"integrations"`
}

type IntegrationOutput struct {
	Provider   string  `json:"provider"`
	Active     bool    `json:"active"`
	Email      string  `json:"email,omitempty"`
	CalendarID string  `json:"calendar_id"`
	LastSyncAt *string `json:"last_sync_at,omitempty"`
	SyncStatus string  `json:"sync_status,omitempty"`
	LastError  *string `json:"last_error,omitempty"`
}

func (h *SyncHandlers) IntegrationStatus(ctx context.Context, request *mcp.CallToolRequest, input IntegrationStatusInput) (*mcp.CallToolResult, IntegrationStatusOutput, error) {
	if input.UserID == "" {
		return nil, IntegrationStatusOutput{}, fmt.Errorf("user_id is required")
	}

	integrations, err := h.store.ListIntegrations(ctx, input.UserID)
	if err != nil {
		return nil, IntegrationStatusOutput{}, fmt.Errorf("failed to list integrations: %w", err)
	}

	out := IntegrationStatusOutput{Integrations: make([]IntegrationOutput, 0, len(integrations))}
	for _, integ := range integrations {
		item := IntegrationOutput{
			Provider:   string(integ.Provider),
			Active:     integ.IsActive,
			Email:      integ.Email,
			CalendarID: integ.CalendarID,
		}
		if integ.LastSyncAt != nil {
			s := integ.LastSyncAt.UTC().Format(time.RFC3339)
			item.LastSyncAt = &s
		}

		state, err := h.store.GetSyncState(ctx, sync.SyncService(integ.Provider, integ.UserID))
		if err != nil {
			return nil, IntegrationStatusOutput{}, fmt.Errorf("failed to get sync state: %w", err)
		}
		if state != nil {
			item.SyncStatus = state.Status
			item.LastError = state.ErrorMessage
		}

		out.Integrations = append(out.Integrations, item)
	}

	return nil, out, nil
}
