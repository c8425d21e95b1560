// ABOUTME: Provider-side event shapes shared by the fetchers, reconciler, and webhook listener
// ABOUTME: Models the remote "when" union as a tagged variant instead of a duck-typed object
package models

import "time"

// WhenKind tags which variant of When is populated.
type WhenKind string

const (
	WhenUnknown  WhenKind = ""
	WhenTimespan WhenKind = "timespan"
	WhenDate     WhenKind = "date"
	WhenDatespan WhenKind = "datespan"
)

// When is the time of a remote event. Exactly one variant is meaningful,
// selected by Kind:
//   - WhenTimespan: StartTime/EndTime in unix seconds
//   - WhenDate: a single all-day Date (YYYY-MM-DD)
//   - WhenDatespan: an inclusive StartDate..EndDate range of all-day dates
type When struct {
	Kind      WhenKind `json:"object"`
	StartTime int64    `json:"start_time,omitempty"`
	EndTime   int64    `json:"end_time,omitempty"`
	Date      string   `json:"date,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

// Timespan builds a timed When from two instants.
func Timespan(start, end time.Time) When {
	return When{Kind: WhenTimespan, StartTime: start.Unix(), EndTime: end.Unix()}
}

// AllDay builds a single-date When.
func AllDay(date string) When {
	return When{Kind: WhenDate, Date: date}
}

// DateSpan builds an inclusive multi-day When.
func DateSpan(start, end string) When {
	return When{Kind: WhenDatespan, StartDate: start, EndDate: end}
}

// Remote event statuses.
const (
	EventConfirmed = "confirmed"
	EventTentative = "tentative"
	EventCancelled = "cancelled"
)

type Participant struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

// RemoteEvent is an event owned by the external calendar provider.
type RemoteEvent struct {
	ID           string        `json:"id"`
	GrantID      string        `json:"grant_id,omitempty"`
	CalendarID   string        `json:"calendar_id,omitempty"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Location     string        `json:"location,omitempty"`
	When         When          `json:"when"`
	Participants []Participant `json:"participants,omitempty"`
	Status       string        `json:"status,omitempty"`
}

// IsCancelled reports whether the provider marked the event cancelled.
func (e RemoteEvent) IsCancelled() bool {
	return e.Status == EventCancelled
}

// IsAllDay reports whether w is a date or datespan rather than a timed span.
func (w When) IsAllDay() bool {
	return w.Kind == WhenDate || w.Kind == WhenDatespan
}

// EventPayload is the provider-neutral body of a create or update call.
// For AllDay payloads only the calendar dates of Start and End, read in
// their own location, are sent.
type EventPayload struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// Webhook trigger types.
const (
	TriggerEventCreated = "event.created"
	TriggerEventUpdated = "event.updated"
	TriggerEventDeleted = "event.deleted"
	TriggerGrantExpired = "grant.expired"
)

// WebhookNotification is one decoded provider delivery.
type WebhookNotification struct {
	ID      string
	Type    string
	GrantID string
	Event   RemoteEvent
}
