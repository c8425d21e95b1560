// ABOUTME: Pure reconciliation of remote provider events against local appointments
// ABOUTME: Classifies each event as insert, update, delete, skip, or unchanged without any I/O
package sync

import (
	"sort"
	"time"

	"github.com/harperreed/shadecal/models"
)

// Action is the classification of one remote event against the local book.
type Action int

const (
	ActionNone Action = iota
	ActionInsert
	ActionUpdate
	ActionDelete
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "created"
	case ActionUpdate:
		return "updated"
	case ActionDelete:
		return "deleted"
	case ActionSkip:
		return "skipped"
	}
	return "unchanged"
}

// Input is everything one reconciliation pass looks at.
type Input struct {
	UserID   string
	Provider models.Provider
	Remote   []models.RemoteEvent
	// Local indexes the user's provider-linked appointments by provider event id.
	Local map[string]models.Appointment
	// From and To bound the fetch window. Only linked appointments starting
	// inside it can be judged deleted upstream. Zero values mean unbounded.
	From     time.Time
	To       time.Time
	Location *time.Location
}

// Plan is the outcome of a reconciliation pass.
type Plan struct {
	Inserts    []models.Appointment
	Updates    []models.Appointment
	Deletes    []models.Appointment
	Skipped    int
	Considered int
}

// Reconcile classifies every remote event in in.Remote and then marks linked
// appointments the provider no longer reports for deletion.
func Reconcile(in Input) Plan {
	plan := Plan{Considered: len(in.Remote)}
	seen := make(map[string]bool, len(in.Remote))

	for _, ev := range in.Remote {
		if ev.ID == "" {
			plan.Skipped++
			continue
		}
		// A repeated id within one listing is handled once.
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true

		var local *models.Appointment
		if a, ok := in.Local[ev.ID]; ok {
			local = &a
		}

		action, appt := Classify(in.UserID, in.Provider, ev, local, in.Location)
		switch action {
		case ActionInsert:
			plan.Inserts = append(plan.Inserts, appt)
		case ActionUpdate:
			plan.Updates = append(plan.Updates, appt)
		case ActionDelete:
			plan.Deletes = append(plan.Deletes, appt)
		case ActionSkip:
			plan.Skipped++
		}
	}

	var gone []models.Appointment
	for eventID, a := range in.Local {
		if seen[eventID] || !inWindow(a.StartTime, in.From, in.To) {
			continue
		}
		gone = append(gone, a)
	}
	sort.Slice(gone, func(i, j int) bool { return gone[i].StartTime.Before(gone[j].StartTime) })
	plan.Deletes = append(plan.Deletes, gone...)

	return plan
}

// Classify decides what a single remote event means for its local match,
// which may be nil. The returned appointment is the row to insert, the
// updated copy of local, or local itself for a delete.
func Classify(userID string, provider models.Provider, ev models.RemoteEvent, local *models.Appointment, loc *time.Location) (Action, models.Appointment) {
	if ev.IsCancelled() {
		if local != nil {
			return ActionDelete, *local
		}
		return ActionNone, models.Appointment{}
	}

	start, end, err := Normalize(ev.When, loc)
	if err != nil {
		return ActionSkip, models.Appointment{}
	}

	if local == nil {
		return ActionInsert, toAppointment(userID, provider, ev, start, end)
	}

	if !changed(*local, ev, start, end) {
		return ActionNone, *local
	}
	return ActionUpdate, applyRemote(*local, ev, start, end)
}

func toAppointment(userID string, provider models.Provider, ev models.RemoteEvent, start, end time.Time) models.Appointment {
	a := models.Appointment{
		UserID:              userID,
		Title:               ev.Title,
		Description:         ev.Description,
		StartTime:           start,
		EndTime:             end,
		Location:            ev.Location,
		AppointmentType:     models.AppointmentPersonal,
		AllDay:              ev.When.IsAllDay(),
		InvitedClientEmails: participantEmails(ev.Participants),
	}
	a.SetEventID(provider, ev.ID)
	return a
}

// changed compares the tracked field set. Participants are not tracked.
func changed(local models.Appointment, ev models.RemoteEvent, start, end time.Time) bool {
	return local.AllDay != ev.When.IsAllDay() ||
		local.Title != ev.Title ||
		local.Description != ev.Description ||
		local.Location != ev.Location ||
		!local.StartTime.Equal(start) ||
		!local.EndTime.Equal(end)
}

func applyRemote(local models.Appointment, ev models.RemoteEvent, start, end time.Time) models.Appointment {
	local.Title = ev.Title
	local.Description = ev.Description
	local.Location = ev.Location
	local.StartTime = start
	local.EndTime = end
	local.AllDay = ev.When.IsAllDay()
	if len(ev.Participants) > 0 {
		local.InvitedClientEmails = participantEmails(ev.Participants)
	}
	return local
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
