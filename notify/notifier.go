// ABOUTME: Notification fan-out: persists each notification and publishes it to a broker
// ABOUTME: Publishing is best effort; the stored row is the source of truth
package notify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/harperreed/shadecal/models"
)

// Store persists notification rows.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Publisher sends an encoded notification to other processes.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type Notifier struct {
	store     Store
	publisher Publisher
	logger    *log.Logger
}

// New creates a notifier. publisher may be nil when no broker is configured.
func New(store Store, publisher Publisher, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{store: store, publisher: publisher, logger: logger.WithPrefix("notify")}
}

// Notify stores n and then publishes it. Only the store write can fail the call.
func (n *Notifier) Notify(ctx context.Context, note *models.Notification) error {
	if err := n.store.CreateNotification(ctx, note); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if n.publisher == nil {
		return nil
	}

	body, err := Encode(note)
	if err != nil {
		n.logger.Warn("failed to encode notification", "id", note.ID, "err", err)
		return nil
	}
	if err := n.publisher.Publish(ctx, body); err != nil {
		n.logger.Warn("failed to publish notification", "id", note.ID, "user", note.UserID, "err", err)
	}
	return nil
}

func Encode(note *models.Notification) ([]byte, error) {
	return json.Marshal(note)
}

// Decode parses a published notification body.
func Decode(body []byte) (models.Notification, error) {
	var note models.Notification
	if err := json.Unmarshal(body, &note); err != nil {
		return models.Notification{}, fmt.Errorf("failed to decode notification: %w", err)
	}
	return note, nil
}
