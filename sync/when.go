// ABOUTME: Normalizes a remote event's "when" into a concrete start/end pair
// ABOUTME: All-day shapes expand to 00:00:00 through 23:59:59 in the configured zone
package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/shadecal/models"
)

const dateLayout = "2006-01-02"

// ErrUnparseableWhen marks an event whose time fields match no known shape.
// Such events are counted as skipped and never stored.
var ErrUnparseableWhen = errors.New("unparseable event time")

// Normalize resolves w into start and end instants in loc. A nil loc means UTC.
func Normalize(w models.When, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	var start, end time.Time
	switch w.Kind {
	case models.WhenTimespan:
		if w.StartTime == 0 || w.EndTime == 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: timespan missing bounds", ErrUnparseableWhen)
		}
		start = time.Unix(w.StartTime, 0).In(loc)
		end = time.Unix(w.EndTime, 0).In(loc)

	case models.WhenDate:
		day, err := parseDay(w.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start, end = day, endOfDay(day)

	case models.WhenDatespan:
		first, err := parseDay(w.StartDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		last, err := parseDay(w.EndDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start, end = first, endOfDay(last)

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown shape %q", ErrUnparseableWhen, w.Kind)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end before start", ErrUnparseableWhen)
	}
	return start, end, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing date", ErrUnparseableWhen)
	}
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseableWhen, err)
	}
	return d, nil
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
}
