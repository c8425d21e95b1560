// ABOUTME: Notification database operations
// ABOUTME: Stores in-app notification rows with time-sortable ULID identifiers
package db

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/harperreed/shadecal/models"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewNotificationID generates a new ULID for a notification row.
func NewNotificationID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

const notificationColumns = `id, user_id, title, message, type, category, source_type, source_id, action_url, priority, is_read, created_at`

// CreateNotification inserts a notification, filling ID, defaults, and timestamp.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n == nil || n.UserID == "" || n.Title == "" {
		return ErrInvalidNotification
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.ID == "" {
		n.ID = NewNotificationID(n.CreatedAt)
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if n.Category == "" {
		n.Category = models.CategoryCalendar
	}
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Title, n.Message, n.Type, n.Category, n.SourceType, n.SourceID,
		n.ActionURL, n.Priority, n.IsRead, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Category,
			&n.SourceType, &n.SourceID, &n.ActionURL, &n.Priority, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead flags one notification as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
