// ABOUTME: Push direction: sends local appointments in the push window to the provider
// ABOUTME: Updates linked events, recreates vanished ones, and creates local-only ones
package sync

import (
	"context"
	"time"

	"github.com/harperreed/shadecal/models"
)

// Push sends every appointment starting within the push window to the
// provider. Each appointment is attempted once; failures are counted and the
// batch continues. Local deletions are not propagated.
func (e *Engine) Push(ctx context.Context, userID string) (Result, error) {
	integ, err := e.activeIntegration(ctx, userID, models.ProviderNylas)
	if err != nil {
		return Result{}, err
	}
	if integ.GrantID == "" {
		return Result{}, models.NewConfigurationError("nylas integration for user %s has no grant", userID)
	}

	now := e.opts.Now()
	appts, err := e.store.ListAppointmentsBetween(ctx, userID, now, now.AddDate(0, 0, e.opts.PushWindowDays))
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(appts)}
	for i := range appts {
		res.record(e.pushOne(ctx, integ, &appts[i]))
	}

	e.logger.Info("push complete",
		"user", userID,
		"synced", res.Synced,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"total", res.Total,
	)
	return res, nil
}

func (e *Engine) pushOne(ctx context.Context, integ *models.IntegrationRecord, a *models.Appointment) outcome {
	payload := payloadFor(a, e.opts.Location)

	if eventID := a.EventID(models.ProviderNylas); eventID != "" {
		err := e.api.UpdateEvent(ctx, integ.GrantID, integ.CalendarID, eventID, payload)
		if err == nil {
			return outcomeUpdated
		}
		if !models.IsNotFound(err) {
			e.logger.Error("failed to update remote event", "appointment", a.ID, "event_id", eventID, "err", err)
			return outcomeFailed
		}
		e.logger.Info("remote event vanished, recreating", "appointment", a.ID, "event_id", eventID)
		return e.createRemote(ctx, integ, a, payload)
	}

	// Linked to another provider; that provider owns it.
	if a.GoogleEventID != nil {
		return outcomeSkipped
	}

	return e.createRemote(ctx, integ, a, payload)
}

func (e *Engine) createRemote(ctx context.Context, integ *models.IntegrationRecord, a *models.Appointment, payload models.EventPayload) outcome {
	newID, err := e.api.CreateEvent(ctx, integ.GrantID, integ.CalendarID, payload)
	if err != nil {
		e.logger.Error("failed to create remote event", "appointment", a.ID, "err", err)
		return outcomeFailed
	}
	if err := e.store.SetAppointmentEventID(ctx, a.ID, models.ProviderNylas, newID); err != nil {
		e.logger.Error("failed to link appointment to remote event", "appointment", a.ID, "event_id", newID, "err", err)
		return outcomeFailed
	}
	a.SetEventID(models.ProviderNylas, newID)
	return outcomeSynced
}

// payloadFor reads the appointment's bounds in loc so all-day rows keep the
// calendar dates they were pulled with.
func payloadFor(a *models.Appointment, loc *time.Location) models.EventPayload {
	if loc == nil {
		loc = time.UTC
	}
	return models.EventPayload{
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Start:       a.StartTime.In(loc),
		End:         a.EndTime.In(loc),
		AllDay:      a.AllDay,
	}
}
