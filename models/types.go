// ABOUTME: Data models for calendar reconciliation entities
// ABOUTME: Defines Appointment, IntegrationRecord, Notification, and SyncState structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies the remote calendar system an appointment or
// integration is linked to.
type Provider string

const (
	ProviderNylas  Provider = "nylas"
	ProviderGoogle Provider = "google"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderNylas || p == ProviderGoogle
}

// Appointment types.
const (
	AppointmentPersonal     = "personal"
	AppointmentMeasure      = "measure"
	AppointmentInstall      = "install"
	AppointmentConsultation = "consultation"
	AppointmentFollowUp     = "follow_up"
)

// IsValidAppointmentType reports whether t is a known appointment type tag.
func IsValidAppointmentType(t string) bool {
	switch t {
	case AppointmentPersonal, AppointmentMeasure, AppointmentInstall, AppointmentConsultation, AppointmentFollowUp:
		return true
	}
	return false
}

type Appointment struct {
	ID                  uuid.UUID `json:"id"`
	UserID              string    `json:"user_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	AllDay              bool      `json:"all_day,omitempty"`
	Location            string    `json:"location,omitempty"`
	AppointmentType     string    `json:"appointment_type"`
	Color               string    `json:"color,omitempty"`
	InvitedClientEmails []string  `json:"invited_client_emails,omitempty"`
	NylasEventID        *string   `json:"nylas_event_id,omitempty"`
	GoogleEventID       *string   `json:"google_event_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// EventID returns the appointment's identifier at the given provider, or ""
// when the appointment is not linked there.
func (a *Appointment) EventID(p Provider) string {
	var id *string
	switch p {
	case ProviderNylas:
		id = a.NylasEventID
	case ProviderGoogle:
		id = a.GoogleEventID
	}
	if id == nil {
		return ""
	}
	return *id
}

// SetEventID links the appointment to an event at the given provider.
func (a *Appointment) SetEventID(p Provider, eventID string) {
	id := eventID
	switch p {
	case ProviderNylas:
		a.NylasEventID = &id
	case ProviderGoogle:
		a.GoogleEventID = &id
	}
}

// IsLocalOnly reports whether the appointment has never been linked to any provider.
func (a *Appointment) IsLocalOnly() bool {
	return a.NylasEventID == nil && a.GoogleEventID == nil
}

// IntegrationRecord is one user's connection to a calendar provider.
type IntegrationRecord struct {
	ID         uuid.UUID  `json:"id"`
	UserID     string     `json:"user_id"`
	Provider   Provider   `json:"provider"`
	GrantID    string     `json:"grant_id,omitempty"`
	Email      string     `json:"email,omitempty"`
	CalendarID string     `json:"calendar_id"`
	IsActive   bool       `json:"is_active"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DefaultCalendarID is used when an integration does not name a calendar.
const DefaultCalendarID = "primary"

// Notification types.
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

const (
	CategoryCalendar       = "calendar"
	SourceTypeNylasWebhook = "nylas_webhook"
)

// Notification is an in-app message describing a change made on the user's behalf.
type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	Category   string    `json:"category"`
	SourceType string    `json:"source_type,omitempty"`
	SourceID   string    `json:"source_id,omitempty"`
	ActionURL  string    `json:"action_url,omitempty"`
	Priority   string    `json:"priority"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sync statuses.
const (
	SyncIdle    = "idle"
	SyncSyncing = "syncing"
	SyncError   = "error"
)

// SyncState represents the sync state for a service.
type SyncState struct {
	Service      string     `json:"service"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
