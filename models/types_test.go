// ABOUTME: Tests for calendar data models
// ABOUTME: Validates provider links, appointment types, and error classification
package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestAppointmentEventIDs(t *testing.T) {
	a := &Appointment{Title: "Measure-up"}

	if !a.IsLocalOnly() {
		t.Error("expected new appointment to be local-only")
	}
	if got := a.EventID(ProviderNylas); got != "" {
		t.Errorf("expected empty nylas id, got %q", got)
	}

	a.SetEventID(ProviderNylas, "evt_123")
	if got := a.EventID(ProviderNylas); got != "evt_123" {
		t.Errorf("expected evt_123, got %q", got)
	}
	if got := a.EventID(ProviderGoogle); got != "" {
		t.Errorf("expected no google id, got %q", got)
	}
	if a.IsLocalOnly() {
		t.Error("expected linked appointment not to be local-only")
	}

	a.SetEventID(ProviderGoogle, "g_1")
	if got := a.EventID(ProviderGoogle); got != "g_1" {
		t.Errorf("expected g_1, got %q", got)
	}
}

func TestIsValidAppointmentType(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{AppointmentPersonal, true},
		{AppointmentInstall, true},
		{AppointmentFollowUp, true},
		{"lunch", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidAppointmentType(tt.input); got != tt.expected {
			t.Errorf("IsValidAppointmentType(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestProviderValid(t *testing.T) {
	if !ProviderNylas.Valid() || !ProviderGoogle.Valid() {
		t.Error("expected known providers to be valid")
	}
	if Provider("outlook").Valid() {
		t.Error("expected unknown provider to be invalid")
	}
}

func TestTimespanUsesUnixSeconds(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	w := Timespan(start, start.Add(time.Hour))

	if w.Kind != WhenTimespan {
		t.Errorf("expected timespan kind, got %q", w.Kind)
	}
	if w.StartTime != start.Unix() || w.EndTime != start.Add(time.Hour).Unix() {
		t.Errorf("unexpected bounds %d..%d", w.StartTime, w.EndTime)
	}
}

func TestErrorClassification(t *testing.T) {
	notFound := fmt.Errorf("update failed: %w", &IntegrationError{
		Provider:   ProviderNylas,
		Op:         "update event",
		StatusCode: http.StatusNotFound,
		Body:       "not found",
	})
	if !IsNotFound(notFound) {
		t.Error("expected wrapped 404 to be classified as not found")
	}
	if !IsIntegrationError(notFound) {
		t.Error("expected wrapped 404 to be an integration error")
	}

	serverErr := &IntegrationError{Provider: ProviderNylas, Op: "list events", StatusCode: 500, Body: "boom"}
	if IsNotFound(serverErr) {
		t.Error("expected 500 not to be classified as not found")
	}
	if serverErr.Error() != "nylas list events failed with status 500: boom" {
		t.Errorf("unexpected message %q", serverErr.Error())
	}

	cfg := NewConfigurationError("no grant for user %s", "u1")
	if !IsConfigurationError(fmt.Errorf("pull: %w", cfg)) {
		t.Error("expected wrapped configuration error to be detected")
	}
	if IsConfigurationError(errors.New("plain")) {
		t.Error("expected plain error not to be a configuration error")
	}
}
