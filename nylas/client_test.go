// ABOUTME: Tests for the Nylas events client against an httptest server
// ABOUTME: Covers cursor pagination, bearer auth, error mapping, and create/update bodies
package nylas

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shadecal/models"
)

func TestListEventsFollowsCursor(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/v3/grants/grant-1/events", r.URL.Path)
		assert.Equal(t, "primary", r.URL.Query().Get("calendar_id"))
		assert.Equal(t, "200", r.URL.Query().Get("limit"))

		token := r.URL.Query().Get("page_token")
		pages = append(pages, token)
		w.Header().Set("Content-Type", "application/json")
		switch token {
		case "":
			_, _ = io.WriteString(w, `{"request_id":"r1","next_cursor":"c2","data":[
				{"id":"e1","grant_id":"grant-1","title":"Measure","when":{"object":"timespan","start_time":1741600800,"end_time":1741604400}}
			]}`)
		case "c2":
			_, _ = io.WriteString(w, `{"request_id":"r2","data":[
				{"id":"e2","title":"Holiday","when":{"object":"date","date":"2025-03-12"}},
				{"id":"e3","title":"Trip","when":{"start_date":"2025-03-13","end_date":"2025-03-14"},"status":"cancelled"}
			]}`)
		default:
			t.Errorf("unexpected page token %q", token)
		}
	}))
	defer srv.Close()

	c := NewClient("key-123", srv.URL, nil)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	events, err := c.ListEvents(context.Background(), "grant-1", "", from, from.AddDate(0, 0, 30))
	require.NoError(t, err)

	assert.Equal(t, []string{"", "c2"}, pages)
	require.Len(t, events, 3)
	assert.Equal(t, models.WhenTimespan, events[0].When.Kind)
	assert.Equal(t, int64(1741600800), events[0].When.StartTime)
	assert.Equal(t, models.WhenDate, events[1].When.Kind)
	assert.Equal(t, "2025-03-12", events[1].When.Date)
	assert.Equal(t, models.WhenDatespan, events[2].When.Kind)
	assert.True(t, events[2].IsCancelled())
}

func TestListEventsSendsWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1740787200", r.URL.Query().Get("start"))
		assert.Equal(t, "1743379200", r.URL.Query().Get("end"))
		assert.Equal(t, "work", r.URL.Query().Get("calendar_id"))
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	events, err := NewClient("k", srv.URL, nil).ListEvents(context.Background(), "g", "work", from, to)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListEventsPageFailureAbortsListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_token") == "" {
			_, _ = io.WriteString(w, `{"next_cursor":"c2","data":[{"id":"e1","when":{"object":"date","date":"2025-03-12"}}]}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `upstream unavailable`)
	}))
	defer srv.Close()

	events, err := NewClient("k", srv.URL, nil).ListEvents(context.Background(), "g", "", time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Nil(t, events)
	assert.True(t, models.IsIntegrationError(err))
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestClientRequiresConfiguration(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient("", "http://127.0.0.1:1", nil).ListEvents(ctx, "g", "", time.Now(), time.Now())
	assert.True(t, models.IsConfigurationError(err))

	_, err = NewClient("k", "http://127.0.0.1:1", nil).CreateEvent(ctx, "", "", models.EventPayload{})
	assert.True(t, models.IsConfigurationError(err))
}

func TestCreateEventSendsTimespan(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/grants/g1/events", r.URL.Path)
		assert.Equal(t, "primary", r.URL.Query().Get("calendar_id"))

		var body writeEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Install blinds", body.Title)
		assert.Equal(t, "12 Oak St", body.Location)
		assert.Equal(t, start.Unix(), body.When.StartTime)
		assert.Equal(t, end.Unix(), body.When.EndTime)

		_, _ = io.WriteString(w, `{"request_id":"r","data":{"id":"evt_new"}}`)
	}))
	defer srv.Close()

	id, err := NewClient("k", srv.URL, nil).CreateEvent(context.Background(), "g1", "", models.EventPayload{
		Title: "Install blinds", Location: "12 Oak St", Start: start, End: end,
	})
	require.NoError(t, err)
	assert.Equal(t, "evt_new", id)
}

func TestUpdateEventNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v3/grants/g1/events/evt_gone", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"not_found_error"}}`)
	}))
	defer srv.Close()

	err := NewClient("k", srv.URL, nil).UpdateEvent(context.Background(), "g1", "", "evt_gone", models.EventPayload{Title: "x"})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestUpdateEventSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"id":"evt_1"}}`)
	}))
	defer srv.Close()

	err := NewClient("k", srv.URL, nil).UpdateEvent(context.Background(), "g1", "cal", "evt_1", models.EventPayload{Title: "x"})
	assert.NoError(t, err)
}

func TestUpdateEventSendsAllDayShapes(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want string
	}{
		{"single day", time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC), `{"object":"date","date":"2025-03-12"}`},
		{"several days", time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC), `{"object":"datespan","start_date":"2025-03-12","end_date":"2025-03-14"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					When json.RawMessage `json:"when"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.JSONEq(t, tt.want, string(body.When))
				_, _ = io.WriteString(w, `{"data":{"id":"evt_1"}}`)
			}))
			defer srv.Close()

			err := NewClient("k", srv.URL, nil).UpdateEvent(context.Background(), "g1", "", "evt_1", models.EventPayload{
				Title: "Install day", Start: day, End: tt.end, AllDay: true,
			})
			require.NoError(t, err)
		})
	}
}
