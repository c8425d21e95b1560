// ABOUTME: Wire shapes of the Nylas v3 events API and their mapping onto shared models
// ABOUTME: Resolves the provider's "when" object into the tagged When variant
package nylas

import (
	"github.com/harperreed/shadecal/models"
)

type wireWhen struct {
	Object    string `json:"object,omitempty"`
	StartTime int64  `json:"start_time,omitempty"`
	EndTime   int64  `json:"end_time,omitempty"`
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type wireParticipant struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

type wireEvent struct {
	ID           string            `json:"id"`
	GrantID      string            `json:"grant_id,omitempty"`
	CalendarID   string            `json:"calendar_id,omitempty"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Location     string            `json:"location,omitempty"`
	When         wireWhen          `json:"when"`
	Participants []wireParticipant `json:"participants,omitempty"`
	Status       string            `json:"status,omitempty"`
}

type listEventsResponse struct {
	RequestID  string      `json:"request_id"`
	Data       []wireEvent `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type eventResponse struct {
	RequestID string    `json:"request_id"`
	Data      wireEvent `json:"data"`
}

// writeEvent is the body of create/update calls.
type writeEvent struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	When        wireWhen `json:"when"`
}

func (w wireWhen) toModel() models.When {
	switch w.Object {
	case "timespan", "time":
		return models.When{Kind: models.WhenTimespan, StartTime: w.StartTime, EndTime: w.EndTime}
	case "date":
		return models.When{Kind: models.WhenDate, Date: w.Date}
	case "datespan":
		return models.When{Kind: models.WhenDatespan, StartDate: w.StartDate, EndDate: w.EndDate}
	case "":
		// Some payloads omit the discriminator; fall back to which fields are present.
		switch {
		case w.StartTime != 0 || w.EndTime != 0:
			return models.When{Kind: models.WhenTimespan, StartTime: w.StartTime, EndTime: w.EndTime}
		case w.Date != "":
			return models.When{Kind: models.WhenDate, Date: w.Date}
		case w.StartDate != "" || w.EndDate != "":
			return models.When{Kind: models.WhenDatespan, StartDate: w.StartDate, EndDate: w.EndDate}
		}
	}
	return models.When{Kind: models.WhenUnknown}
}

func (e wireEvent) toModel() models.RemoteEvent {
	ev := models.RemoteEvent{
		ID:          e.ID,
		GrantID:     e.GrantID,
		CalendarID:  e.CalendarID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		When:        e.When.toModel(),
		Status:      e.Status,
	}
	for _, p := range e.Participants {
		ev.Participants = append(ev.Participants, models.Participant{Email: p.Email, Name: p.Name, Status: p.Status})
	}
	return ev
}

const dateLayout = "2006-01-02"

func toWriteEvent(p models.EventPayload) writeEvent {
	return writeEvent{
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		When:        writeWhen(p),
	}
}

// writeWhen picks the when shape: a date for a single all-day event, a
// datespan when it covers several days, otherwise a timespan.
func writeWhen(p models.EventPayload) wireWhen {
	if !p.AllDay {
		return wireWhen{StartTime: p.Start.Unix(), EndTime: p.End.Unix()}
	}

	first := p.Start.Format(dateLayout)
	last := p.End.Format(dateLayout)
	if last <= first {
		return wireWhen{Object: "date", Date: first}
	}
	return wireWhen{Object: "datespan", StartDate: first, EndDate: last}
}
