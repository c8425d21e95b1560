// ABOUTME: Tests for CLI commands
// ABOUTME: Runs commands against a temporary store with a fake calendar provider
package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shadecal/config"
	"github.com/harperreed/shadecal/db"
	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/sync"
)

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type fakeCalendar struct {
	events  []models.RemoteEvent
	created []models.EventPayload
}

func (f *fakeCalendar) ListEvents(ctx context.Context, grantID, calendarID string, from, to time.Time) ([]models.RemoteEvent, error) {
	return f.events, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, grantID, calendarID string, p models.EventPayload) (string, error) {
	f.created = append(f.created, p)
	return "evt_pushed", nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, grantID, calendarID, eventID string, p models.EventPayload) error {
	return nil
}

func setupTestEnv(t *testing.T) (*Env, *bytes.Buffer, *fakeCalendar) {
	t.Helper()

	store, err := db.Open(db.DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	api := &fakeCalendar{}
	env := &Env{
		Config:   &config.Config{PullWindowDays: 30, PushWindowDays: 90, AppURL: "https://app.example.com"},
		Store:    store,
		Logger:   log.New(io.Discard),
		Location: time.UTC,
		Out:      out,
		API:      api,
		Now:      func() time.Time { return testNow },
	}
	t.Cleanup(func() { _ = env.Close() })
	return env, out, api
}

func connectNylas(t *testing.T, env *Env, user string) {
	t.Helper()
	require.NoError(t, ConnectIntegrationCommand(env, []string{"--user", user, "--grant", "grant-" + user}))
}

func TestAddListDeleteAppointment(t *testing.T) {
	env, out, _ := setupTestEnv(t)

	err := AddAppointmentCommand(env, []string{
		"--user", "u1", "--title", "Measure: Ruiz", "--start", "2025-03-11 09:30",
		"--type", "measure", "--clients", "Ruiz@Example.com, ,b@example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Appointment created: Measure: Ruiz")

	appts, err := env.Store.ListAppointments(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	a := appts[0]
	assert.True(t, a.StartTime.Equal(time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC)))
	assert.True(t, a.EndTime.Equal(a.StartTime.Add(time.Hour)))
	assert.Equal(t, []string{"ruiz@example.com", "b@example.com"}, a.InvitedClientEmails)

	out.Reset()
	require.NoError(t, ListAppointmentsCommand(env, []string{"--user", "u1", "--days", "7"}))
	assert.Contains(t, out.String(), "Measure: Ruiz")
	assert.Contains(t, out.String(), "local")
	assert.Contains(t, out.String(), "Total: 1")

	out.Reset()
	require.NoError(t, DeleteAppointmentCommand(env, []string{"--id", a.ID.String()}))
	assert.Contains(t, out.String(), "Appointment deleted")

	got, err := env.Store.GetAppointment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddAppointmentValidation(t *testing.T) {
	env, _, _ := setupTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing title", []string{"--user", "u1", "--start", "2025-03-11 09:30"}},
		{"bad type", []string{"--user", "u1", "--title", "x", "--start", "2025-03-11 09:30", "--type", "party"}},
		{"bad start", []string{"--user", "u1", "--title", "x", "--start", "tomorrow"}},
		{"zero duration", []string{"--user", "u1", "--title", "x", "--start", "2025-03-11 09:30", "--duration", "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, AddAppointmentCommand(env, tt.args))
		})
	}
}

func TestDeleteAppointmentNotFound(t *testing.T) {
	env, _, _ := setupTestEnv(t)

	assert.Error(t, DeleteAppointmentCommand(env, []string{"--id", "not-a-uuid"}))
	assert.Error(t, DeleteAppointmentCommand(env, []string{"--id", "00000000-0000-0000-0000-000000000001"}))
}

func TestParseLocalTime(t *testing.T) {
	zone := time.FixedZone("CST", -6*60*60)

	got, err := parseLocalTime("2025-03-11 09:30", zone)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 11, 15, 30, 0, 0, time.UTC)))

	got, err = parseLocalTime("2025-03-11T09:30:00Z", zone)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC)))

	_, err = parseLocalTime("03/11/2025", zone)
	assert.Error(t, err)
}

func TestSyncPullAndPushCommands(t *testing.T) {
	env, out, api := setupTestEnv(t)
	connectNylas(t, env, "u1")

	start := testNow.Add(24 * time.Hour)
	api.events = []models.RemoteEvent{
		{ID: "evt_1", Title: "Install: Bauer", When: models.Timespan(start, start.Add(time.Hour))},
		{ID: "evt_2", Title: "No time"},
	}

	out.Reset()
	require.NoError(t, SyncPullCommand(env, []string{"--user", "u1"}))
	assert.Contains(t, out.String(), "Pulled 2 events")
	assert.Contains(t, out.String(), "Created: 1")
	assert.Contains(t, out.String(), "Skipped: 1")
	assert.NotContains(t, out.String(), "Unchanged")

	require.NoError(t, AddAppointmentCommand(env, []string{"--user", "u1", "--title", "Local", "--start", "2025-03-12 10:00"}))

	out.Reset()
	require.NoError(t, SyncPushCommand(env, []string{"--user", "u1"}))
	require.Len(t, api.created, 1)
	assert.Equal(t, "Local", api.created[0].Title)

	assert.Error(t, SyncPullCommand(env, []string{}))
	err := SyncPullCommand(env, []string{"--user", "nobody"})
	assert.True(t, models.IsConfigurationError(err))
}

func TestSyncGoogleRequiresLink(t *testing.T) {
	env, _, _ := setupTestEnv(t)

	err := SyncGoogleCommand(env, []string{"--user", "u1"})
	assert.ErrorContains(t, err, "no google calendar linked")
}

func TestConnectIntegration(t *testing.T) {
	env, out, _ := setupTestEnv(t)

	assert.Error(t, ConnectIntegrationCommand(env, []string{"--user", "u1"}))
	assert.Error(t, ConnectIntegrationCommand(env, []string{"--user", "u1", "--provider", "outlook"}))

	err := ConnectIntegrationCommand(env, []string{"--user", "u1", "--provider", "google"})
	assert.True(t, models.IsConfigurationError(err))

	connectNylas(t, env, "u1")
	assert.Contains(t, out.String(), "Connected nylas calendar for u1")

	integ, err := env.Store.GetIntegration(context.Background(), "u1", models.ProviderNylas)
	require.NoError(t, err)
	require.NotNil(t, integ)
	assert.Equal(t, "grant-u1", integ.GrantID)
}

func TestIntegrationStatus(t *testing.T) {
	env, out, _ := setupTestEnv(t)

	require.NoError(t, IntegrationStatusCommand(env, nil))
	assert.Contains(t, out.String(), "No calendars linked yet")

	connectNylas(t, env, "u1")
	connectNylas(t, env, "u2")
	msg := "upstream 503"
	require.NoError(t, env.Store.UpdateSyncStatus(context.Background(), sync.SyncService(models.ProviderNylas, "u2"), models.SyncError, &msg))

	out.Reset()
	require.NoError(t, IntegrationStatusCommand(env, nil))
	assert.Contains(t, out.String(), "u1")
	assert.Contains(t, out.String(), "Not synced yet")
	assert.Contains(t, out.String(), "upstream 503")

	out.Reset()
	require.NoError(t, IntegrationStatusCommand(env, []string{"--user", "u1"}))
	assert.NotContains(t, out.String(), "u2")
}

func TestUserIDsFromStates(t *testing.T) {
	states := []models.SyncState{
		{Service: "nylas:u1"}, {Service: "google:u1"}, {Service: "nylas:u2"}, {Service: "calendar"},
	}
	assert.Equal(t, []string{"u1", "u2"}, userIDsFromStates(states))
}

func TestNotificationCommands(t *testing.T) {
	env, out, _ := setupTestEnv(t)
	ctx := context.Background()

	n := &models.Notification{UserID: "u1", Title: "New calendar event", Message: "Measure on Tue"}
	require.NoError(t, env.Store.CreateNotification(ctx, n))

	require.NoError(t, ListNotificationsCommand(env, []string{"--user", "u1", "--unread"}))
	assert.Contains(t, out.String(), "New calendar event")

	out.Reset()
	require.NoError(t, ReadNotificationCommand(env, []string{"--id", n.ID}))

	out.Reset()
	require.NoError(t, ListNotificationsCommand(env, []string{"--user", "u1", "--unread"}))
	assert.Contains(t, out.String(), "No notifications")
}

func TestWatchNotificationsRequiresBroker(t *testing.T) {
	env, _, _ := setupTestEnv(t)

	err := WatchNotificationsCommand(env, nil)
	assert.True(t, models.IsConfigurationError(err))
}

func TestExportCommand(t *testing.T) {
	env, out, _ := setupTestEnv(t)
	require.NoError(t, AddAppointmentCommand(env, []string{"--user", "u1", "--title", "Consult", "--start", "2025-03-12 10:00"}))

	path := filepath.Join(t.TempDir(), "book.ics")
	out.Reset()
	require.NoError(t, ExportCommand(env, []string{"--user", "u1", "--out", path}))
	assert.Contains(t, out.String(), "Exported 1 appointment(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Consult")

	out.Reset()
	require.NoError(t, ExportCommand(env, []string{"--user", "u1"}))
	assert.Contains(t, out.String(), "BEGIN:VCALENDAR")
}

type scriptedRunner struct {
	pulled, pushed []string
	failPull       map[string]bool
}

func (r *scriptedRunner) Pull(ctx context.Context, userID string) (sync.Result, error) {
	r.pulled = append(r.pulled, userID)
	if r.failPull[userID] {
		return sync.Result{}, errors.New("provider down")
	}
	return sync.Result{Total: 1}, nil
}

func (r *scriptedRunner) Push(ctx context.Context, userID string) (sync.Result, error) {
	r.pushed = append(r.pushed, userID)
	return sync.Result{}, nil
}

func TestRunCycleContinuesPastFailures(t *testing.T) {
	env, _, _ := setupTestEnv(t)
	connectNylas(t, env, "u1")
	connectNylas(t, env, "u2")

	runner := &scriptedRunner{failPull: map[string]bool{"u1": true}}
	runCycle(context.Background(), env.Logger, env.Store, runner, "")

	assert.ElementsMatch(t, []string{"u1", "u2"}, runner.pulled)
	assert.Equal(t, []string{"u2"}, runner.pushed)
}

func TestParseUserIDs(t *testing.T) {
	env, _, _ := setupTestEnv(t)
	connectNylas(t, env, "u1")
	ctx := context.Background()

	ids, err := parseUserIDs(ctx, env.Store, " a, b ,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = parseUserIDs(ctx, env.Store, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}

func TestEffectiveInterval(t *testing.T) {
	logger := log.New(io.Discard)

	assert.Equal(t, minSyncInterval, effectiveInterval(time.Minute, logger))
	assert.Equal(t, time.Hour, effectiveInterval(time.Hour, logger))
}

func TestMCPServerListsTools(t *testing.T) {
	env, _, _ := setupTestEnv(t)
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err := NewMCPServer(env).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_appointments", "sync_calendar", "integration_status", "list_notifications", "mark_notification_read",
	}, names)
}
