// ABOUTME: Event-driven direction: applies one provider webhook delivery to the local book
// ABOUTME: Emits a user notification for every change it makes
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/shadecal/models"
)

// WebhookOutcome describes what one delivery did.
type WebhookOutcome struct {
	Type          string `json:"type"`
	Action        string `json:"action"`
	AppointmentID string `json:"appointment_id,omitempty"`
}

const (
	actionIgnored     = "ignored"
	actionDeactivated = "deactivated"
)

// HandleWebhook applies a decoded delivery. Unknown trigger types are ignored.
func (e *Engine) HandleWebhook(ctx context.Context, n models.WebhookNotification) (WebhookOutcome, error) {
	out := WebhookOutcome{Type: n.Type, Action: actionIgnored}

	switch n.Type {
	case models.TriggerEventCreated, models.TriggerEventUpdated, models.TriggerEventDeleted, models.TriggerGrantExpired:
	default:
		e.logger.Debug("ignoring webhook", "type", n.Type)
		return out, nil
	}

	integ, err := e.store.GetIntegrationByGrant(ctx, n.GrantID)
	if err != nil {
		return out, fmt.Errorf("failed to resolve grant %s: %w", n.GrantID, err)
	}
	if integ == nil {
		return out, models.NewConfigurationError("no integration for grant %q", n.GrantID)
	}

	switch n.Type {
	case models.TriggerGrantExpired:
		return e.expireGrant(ctx, integ, out)
	case models.TriggerEventDeleted:
		return e.webhookDelete(ctx, integ.UserID, n.Event, out)
	default:
		return e.webhookUpsert(ctx, integ.UserID, n.Type, n.Event, out)
	}
}

func (e *Engine) webhookUpsert(ctx context.Context, userID, trigger string, ev models.RemoteEvent, out WebhookOutcome) (WebhookOutcome, error) {
	if ev.ID == "" {
		return out, fmt.Errorf("webhook event has no id")
	}

	local, err := e.store.FindAppointmentByEventID(ctx, models.ProviderNylas, ev.ID)
	if err != nil {
		return out, err
	}
	if local != nil {
		out.AppointmentID = local.ID.String()
		// A create for an event we already hold is a redelivery.
		if trigger == models.TriggerEventCreated && !ev.IsCancelled() {
			out.Action = ActionNone.String()
			return out, nil
		}
	}

	action, appt := Classify(userID, models.ProviderNylas, ev, local, e.opts.Location)
	out.Action = action.String()

	switch action {
	case ActionInsert:
		if err := e.store.CreateAppointment(ctx, &appt); err != nil {
			return out, err
		}
		out.AppointmentID = appt.ID.String()
		e.notify(ctx, userID, "New calendar event", describe(appt, e.opts.Location), ev.ID)

	case ActionUpdate:
		if err := e.store.UpdateAppointment(ctx, &appt); err != nil {
			return out, err
		}
		e.notify(ctx, userID, "Calendar event updated", describe(appt, e.opts.Location), ev.ID)

	case ActionDelete:
		if err := e.store.DeleteAppointment(ctx, appt.ID); err != nil {
			return out, err
		}
		e.notify(ctx, userID, "Calendar event cancelled", fmt.Sprintf("%q was cancelled", appt.Title), ev.ID)

	case ActionSkip:
		e.logger.Warn("skipping webhook event with unparseable time", "event_id", ev.ID)
	}

	return out, nil
}

func (e *Engine) webhookDelete(ctx context.Context, userID string, ev models.RemoteEvent, out WebhookOutcome) (WebhookOutcome, error) {
	local, err := e.store.FindAppointmentByEventID(ctx, models.ProviderNylas, ev.ID)
	if err != nil {
		return out, err
	}
	if local == nil {
		out.Action = ActionNone.String()
		return out, nil
	}

	if err := e.store.DeleteAppointment(ctx, local.ID); err != nil {
		return out, err
	}
	out.Action = ActionDelete.String()
	out.AppointmentID = local.ID.String()
	e.notify(ctx, userID, "Calendar event deleted", fmt.Sprintf("%q was removed from your calendar", local.Title), ev.ID)
	return out, nil
}

func (e *Engine) expireGrant(ctx context.Context, integ *models.IntegrationRecord, out WebhookOutcome) (WebhookOutcome, error) {
	if err := e.store.DeactivateIntegration(ctx, integ.ID); err != nil {
		return out, err
	}
	out.Action = actionDeactivated

	e.send(ctx, &models.Notification{
		UserID:     integ.UserID,
		Title:      "Calendar connection expired",
		Message:    "Your calendar connection has expired. Reconnect it to keep appointments in sync.",
		Type:       models.NotificationWarning,
		Category:   models.CategoryCalendar,
		SourceType: models.SourceTypeNylasWebhook,
		SourceID:   integ.GrantID,
		ActionURL:  e.opts.AppURL + "/settings/integrations",
		Priority:   models.PriorityHigh,
	})
	return out, nil
}

func (e *Engine) notify(ctx context.Context, userID, title, message, eventID string) {
	e.send(ctx, &models.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       models.NotificationInfo,
		Category:   models.CategoryCalendar,
		SourceType: models.SourceTypeNylasWebhook,
		SourceID:   eventID,
		Priority:   models.PriorityNormal,
	})
}

// send never fails the delivery; the appointment change already happened.
func (e *Engine) send(ctx context.Context, n *models.Notification) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Error("failed to record notification", "user", n.UserID, "title", n.Title, "err", err)
	}
}

func describe(a models.Appointment, loc *time.Location) string {
	return fmt.Sprintf("%q on %s", a.Title, a.StartTime.In(loc).Format("Mon Jan 2 at 3:04 PM"))
}
