// ABOUTME: Applies a reconciliation plan to the local appointment store row by row
// ABOUTME: Each row succeeds or fails on its own; outcomes accumulate into a Result
package sync

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/shadecal/models"
)

// Result summarizes one pull or push cycle.
type Result struct {
	Synced  int `json:"synced"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// outcome is the result of one row operation.
type outcome int

const (
	outcomeSynced outcome = iota
	outcomeUpdated
	outcomeDeleted
	outcomeSkipped
	outcomeFailed
	outcomeUnchanged
)

func (r *Result) record(o outcome) {
	switch o {
	case outcomeSynced:
		r.Synced++
	case outcomeUpdated:
		r.Updated++
	case outcomeDeleted:
		r.Deleted++
	case outcomeSkipped:
		r.Skipped++
	case outcomeFailed:
		r.Failed++
	}
}

// Mutator is the slice of the store that plan application writes through.
type Mutator interface {
	FindAppointmentByEventID(ctx context.Context, provider models.Provider, eventID string) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	UpdateAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
}

// Apply executes plan against store. There is no surrounding transaction: a
// failing row is logged and counted, the rest still run.
func Apply(ctx context.Context, store Mutator, provider models.Provider, plan Plan, logger *log.Logger) Result {
	if logger == nil {
		logger = log.Default()
	}
	res := Result{Skipped: plan.Skipped, Total: plan.Considered}

	for i := range plan.Inserts {
		a := plan.Inserts[i]
		o, err := insertLinked(ctx, store, provider, &a)
		if err != nil {
			logger.Error("failed to insert appointment", "event_id", a.EventID(provider), "err", err)
		}
		res.record(o)
	}

	for i := range plan.Updates {
		a := plan.Updates[i]
		if err := store.UpdateAppointment(ctx, &a); err != nil {
			logger.Error("failed to update appointment", "id", a.ID, "err", err)
			res.record(outcomeFailed)
			continue
		}
		res.record(outcomeUpdated)
	}

	for _, a := range plan.Deletes {
		if err := store.DeleteAppointment(ctx, a.ID); err != nil {
			logger.Error("failed to delete appointment", "id", a.ID, "err", err)
			res.record(outcomeFailed)
			continue
		}
		res.record(outcomeDeleted)
	}

	return res
}

// insertLinked stores a provider-linked appointment unless one with the same
// event id already exists, which keeps at most one row per event id.
func insertLinked(ctx context.Context, store Mutator, provider models.Provider, a *models.Appointment) (outcome, error) {
	eventID := a.EventID(provider)
	existing, err := store.FindAppointmentByEventID(ctx, provider, eventID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to look up event %s: %w", eventID, err)
	}
	if existing != nil {
		return outcomeUnchanged, nil
	}
	if err := store.CreateAppointment(ctx, a); err != nil {
		return outcomeFailed, fmt.Errorf("failed to create appointment: %w", err)
	}
	return outcomeSynced, nil
}
