package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shadecal/models"
)

func TestEncodeAppointments(t *testing.T) {
	start := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	id := uuid.New()
	appts := []models.Appointment{
		{
			ID:                  id,
			Title:               "Measure: Smith",
			Description:         "Bay window, 3 panels",
			Location:            "12 Oak St",
			StartTime:           start,
			EndTime:             start.Add(time.Hour),
			AppointmentType:     models.AppointmentMeasure,
			Color:               "teal",
			InvitedClientEmails: []string{"smith@example.com", "partner@example.com"},
		},
		{ID: uuid.New(), Title: "Install", StartTime: start.Add(48 * time.Hour), EndTime: start.Add(50 * time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, appts, start))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "PRODID:"+productID)

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, id.String()+"@shadecal", first.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "Measure: Smith", first.Props.Get(ical.PropSummary).Value)
	assert.Equal(t, "12 Oak St", first.Props.Get(ical.PropLocation).Value)
	assert.Equal(t, models.AppointmentMeasure, first.Props.Get(ical.PropCategories).Value)
	assert.Len(t, first.Props.Values(ical.PropAttendee), 2)

	dtstart, err := first.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.True(t, dtstart.Equal(start))

	assert.Nil(t, events[1].Props.Get(ical.PropLocation))
}
