// ABOUTME: Notification MCP tool handlers
// ABOUTME: Implements list_notifications and mark_notification_read
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/shadecal/models"
)

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

type NotificationHandlers struct {
	store NotificationStore
}

func NewNotificationHandlers(store NotificationStore) *NotificationHandlers {
	return &NotificationHandlers{store: store}
}

type ListNotificationsInput struct {
	UserID     string `json:"user_id" jsonschema:"User whose notifications to list (required)"`
	UnreadOnly bool   `json:"unread_only,omitempty" jsonschema:"Only return unread notifications"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type NotificationOutput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	ActionURL string `json:"action_url,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

type ListNotificationsOutput struct {
	Notifications []NotificationOutput `json:"notifications"`
	Count         int                  `json:"count"`
}

func (h *NotificationHandlers) ListNotifications(ctx context.Context, request *mcp.CallToolRequest, input ListNotificationsInput) (*mcp.CallToolResult, ListNotificationsOutput, error) {
	if input.UserID == "" {
		return nil, ListNotificationsOutput{}, fmt.Errorf("user_id is required")
	}

	notifications, err := h.store.ListNotifications(ctx, input.UserID, input.UnreadOnly, input.Limit)
	if err != nil {
		return nil, ListNotificationsOutput{}, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := ListNotificationsOutput{Notifications: make([]NotificationOutput, 0, len(notifications))}
	for _, n := range notifications {
		out.Notifications = append(out.Notifications, NotificationOutput{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			Priority:  n.Priority,
			ActionURL: n.ActionURL,
			Read:      n.IsRead,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	out.Count = len(out.Notifications)

	return nil, out, nil
}

type MarkNotificationReadInput struct {
	ID string `json:"id" jsonschema:"Notification ID (required)"`
}

type MarkNotificationReadOutput struct {
	ID   string `json:"id"`
	Read bool   `json:"read"`
}

func (h *NotificationHandlers) MarkNotificationRead(ctx context.Context, request *mcp.CallToolRequest, input MarkNotificationReadInput) (*mcp.CallToolResult, MarkNotificationReadOutput, error) {
	if input.ID == "" {
		return nil, MarkNotificationReadOutput{}, fmt.Errorf("id is required")
	}
	if err := h.store.MarkNotificationRead(ctx, input.ID); err != nil {
		return nil, MarkNotificationReadOutput{}, err
	}
	return nil, MarkNotificationReadOutput{ID: input.ID, Read: true}, nil
}
