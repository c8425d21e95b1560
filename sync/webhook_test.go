package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shadecal/models"
)

func delivery(trigger string, ev models.RemoteEvent) models.WebhookNotification {
	ev.GrantID = "grant-1"
	return models.WebhookNotification{ID: "d-" + ev.ID, Type: trigger, GrantID: "grant-1", Event: ev}
}

func TestWebhookCreatedInsertsAndNotifies(t *testing.T) {
	engine, store, notifier := setupEngine(t, &fakeCalendar{})
	ctx := context.Background()

	ev := timed("evt_1", "Consultation: Ng", testNow.Add(24*time.Hour), time.Hour)
	ev.Participants = []models.Participant{{Email: "ng@example.com"}}

	out, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventCreated, ev))
	require.NoError(t, err)
	assert.Equal(t, "created", out.Action)
	assert.NotEmpty(t, out.AppointmentID)

	got, err := store.FindAppointmentByEventID(ctx, models.ProviderNylas, "evt_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, []string{"ng@example.com"}, got.InvitedClientEmails)

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, "New calendar event", n.Title)
	assert.Equal(t, models.SourceTypeNylasWebhook, n.SourceType)
	assert.Equal(t, "evt_1", n.SourceID)
	assert.Equal(t, models.CategoryCalendar, n.Category)
}

func TestWebhookCreatedIsIdempotent(t *testing.T) {
	engine, store, notifier := setupEngine(t, &fakeCalendar{})
	ctx := context.Background()
	ev := timed("evt_1", "Measure", testNow.Add(24*time.Hour), time.Hour)

	_, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventCreated, ev))
	require.NoError(t, err)

	out, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventCreated, ev))
	require.NoError(t, err)
	assert.Equal(t, "unchanged", out.Action)

	appts, err := store.ListAppointments(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
	assert.Len(t, notifier.sent, 1)
}

func TestWebhookUpdated(t *testing.T) {
	engine, store, notifier := setupEngine(t, &fakeCalendar{})
	ctx := context.Background()
	ev := timed("evt_1", "Measure", testNow.Add(24*time.Hour), time.Hour)

	// No local match: handled as a create.
	out, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventUpdated, ev))
	require.NoError(t, err)
	assert.Equal(t, "created", out.Action)

	// Same fields again: nothing to do.
	out, err = engine.HandleWebhook(ctx, delivery(models.TriggerEventUpdated, ev))
	require.NoError(t, err)
	assert.Equal(t, "unchanged", out.Action)
	assert.Len(t, notifier.sent, 1)

	ev.Title = "Measure (moved)"
	ev.When = models.Timespan(testNow.Add(25*time.Hour), testNow.Add(26*time.Hour))
	out, err = engine.HandleWebhook(ctx, delivery(models.TriggerEventUpdated, ev))
	require.NoError(t, err)
	assert.Equal(t, "updated", out.Action)

	got, err := store.FindAppointmentByEventID(ctx, models.ProviderNylas, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "Measure (moved)", got.Title)
	assert.True(t, got.StartTime.Equal(testNow.Add(25*time.Hour)))

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "Calendar event updated", notifier.sent[1].Title)
}

func TestWebhookUpdatedCancelledDeletes(t *testing.T) {
	engine, store, _ := setupEngine(t, &fakeCalendar{})
	ctx := context.Background()
	ev := timed("evt_1", "Measure", testNow.Add(24*time.Hour), time.Hour)

	_, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventCreated, ev))
	require.NoError(t, err)

	ev.Status = models.EventCancelled
	out, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventUpdated, ev))
	require.NoError(t, err)
	assert.Equal(t, "deleted", out.Action)

	got, err := store.FindAppointmentByEventID(ctx, models.ProviderNylas, "evt_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWebhookDeleted(t *testing.T) {
	engine, store, notifier := setupEngine(t, &fakeCalendar{})
	ctx := context.Background()
	ev := timed("evt_1", "Install", testNow.Add(24*time.Hour), time.Hour)

	out, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventDeleted, ev))
	require.NoError(t, err)
	assert.Equal(t, "unchanged", out.Action)
	assert.Empty(t, notifier.sent)

	_, err = engine.HandleWebhook(ctx, delivery(models.TriggerEventCreated, ev))
	require.NoError(t, err)

	out, err = engine.HandleWebhook(ctx, delivery(models.TriggerEventDeleted, models.RemoteEvent{ID: "evt_1"}))
	require.NoError(t, err)
	assert.Equal(t, "deleted", out.Action)

	got, err := store.FindAppointmentByEventID(ctx, models.ProviderNylas, "evt_1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "Calendar event deleted", notifier.sent[1].Title)
}

func TestWebhookGrantExpired(t *testing.T) {
	engine, store, notifier := setupEngine(t, &fakeCalendar{})
	ctx := context.Background()

	out, err := engine.HandleWebhook(ctx, models.WebhookNotification{Type: models.TriggerGrantExpired, GrantID: "grant-1"})
	require.NoError(t, err)
	assert.Equal(t, "deactivated", out.Action)

	integ, err := store.GetIntegration(ctx, "u1", models.ProviderNylas)
	require.NoError(t, err)
	assert.False(t, integ.IsActive)

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, models.PriorityHigh, n.Priority)
	assert.Equal(t, models.NotificationWarning, n.Type)
	assert.Equal(t, "https://app.example.com/settings/integrations", n.ActionURL)
}

func TestWebhookUnknownTypeIgnored(t *testing.T) {
	engine, _, notifier := setupEngine(t, &fakeCalendar{})

	out, err := engine.HandleWebhook(context.Background(), models.WebhookNotification{Type: "calendar.created", GrantID: "nope"})
	require.NoError(t, err)
	assert.Equal(t, "ignored", out.Action)
	assert.Empty(t, notifier.sent)
}

func TestWebhookUnknownGrant(t *testing.T) {
	engine, _, _ := setupEngine(t, &fakeCalendar{})
	ev := timed("evt_1", "Measure", testNow, time.Hour)

	n := delivery(models.TriggerEventCreated, ev)
	n.GrantID = "someone-elses-grant"
	_, err := engine.HandleWebhook(context.Background(), n)
	assert.True(t, models.IsConfigurationError(err))
}

func TestWebhookUnparseableTimeIsSkipped(t *testing.T) {
	engine, store, notifier := setupEngine(t, &fakeCalendar{})
	ctx := context.Background()

	out, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventCreated, models.RemoteEvent{ID: "evt_x", Title: "?"}))
	require.NoError(t, err)
	assert.Equal(t, "skipped", out.Action)

	appts, err := store.ListAppointments(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, appts)
	assert.Empty(t, notifier.sent)
}

func TestWebhookNotifierFailureDoesNotFailDelivery(t *testing.T) {
	engine, store, notifier := setupEngine(t, &fakeCalendar{})
	notifier.err = errors.New("broker down")
	ctx := context.Background()

	out, err := engine.HandleWebhook(ctx, delivery(models.TriggerEventCreated, timed("evt_1", "Measure", testNow, time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "created", out.Action)

	got, err := store.FindAppointmentByEventID(ctx, models.ProviderNylas, "evt_1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
