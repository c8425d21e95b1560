// ABOUTME: iCalendar export of a user's appointment book
// ABOUTME: Builds one VEVENT per appointment and encodes the feed with go-ical
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/harperreed/shadecal/models"
)

const productID = "-//shadecal//appointments//EN"

// NewCalendar builds a VCALENDAR holding every appointment. now stamps DTSTAMP.
func NewCalendar(appts []models.Appointment, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	for i := range appts {
		cal.Children = append(cal.Children, toEvent(&appts[i], now))
	}
	return cal
}

// Encode writes the appointments as an iCalendar feed.
func Encode(w io.Writer, appts []models.Appointment, now time.Time) error {
	if err := ical.NewEncoder(w).Encode(NewCalendar(appts, now)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func toEvent(a *models.Appointment, now time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, a.ID.String()+"@shadecal")
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, a.StartTime.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, a.EndTime.UTC())
	ve.Props.SetText(ical.PropSummary, a.Title)

	if a.Description != "" {
		ve.Props.SetText(ical.PropDescription, a.Description)
	}
	if a.Location != "" {
		ve.Props.SetText(ical.PropLocation, a.Location)
	}
	if a.AppointmentType != "" {
		ve.Props.SetText(ical.PropCategories, a.AppointmentType)
	}
	if a.Color != "" {
		color := ical.NewProp("COLOR")
		color.Value = a.Color
		ve.Props.Add(color)
	}
	if !a.UpdatedAt.IsZero() {
		ve.Props.SetDateTime(ical.PropLastModified, a.UpdatedAt.UTC())
	}
	for _, email := range a.InvitedClientEmails {
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + email
		ve.Props.Add(p)
	}
	return ve
}
