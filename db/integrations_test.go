package db

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/shadecal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveIntegrationCreatesAndReplaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := &models.IntegrationRecord{UserID: "u1", Provider: models.ProviderNylas, GrantID: "grant-a", Email: "shop@example.com"}
	require.NoError(t, store.SaveIntegration(ctx, rec))
	assert.Equal(t, models.DefaultCalendarID, rec.CalendarID)
	assert.True(t, rec.IsActive)

	got, err := store.GetIntegration(ctx, "u1", models.ProviderNylas)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "grant-a", got.GrantID)
	assert.Equal(t, "shop@example.com", got.Email)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastSyncAt)

	// Deactivate, then re-authorize with a new grant
	require.NoError(t, store.DeactivateIntegration(ctx, got.ID))
	got, err = store.GetIntegration(ctx, "u1", models.ProviderNylas)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	again := &models.IntegrationRecord{UserID: "u1", Provider: models.ProviderNylas, GrantID: "grant-b"}
	require.NoError(t, store.SaveIntegration(ctx, again))
	assert.Equal(t, rec.ID, again.ID)

	got, err = store.GetIntegration(ctx, "u1", models.ProviderNylas)
	require.NoError(t, err)
	assert.Equal(t, "grant-b", got.GrantID)
	assert.True(t, got.IsActive)
}

func TestSaveIntegrationValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveIntegration(ctx, nil), ErrInvalidIntegration)
	assert.ErrorIs(t, store.SaveIntegration(ctx, &models.IntegrationRecord{Provider: models.ProviderNylas}), ErrInvalidIntegration)
	assert.ErrorIs(t, store.SaveIntegration(ctx, &models.IntegrationRecord{UserID: "u", Provider: "outlook"}), ErrInvalidIntegration)
}

func TestGetIntegrationByGrant(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveIntegration(ctx, &models.IntegrationRecord{UserID: "u1", Provider: models.ProviderNylas, GrantID: "g-1"}))
	require.NoError(t, store.SaveIntegration(ctx, &models.IntegrationRecord{UserID: "u2", Provider: models.ProviderNylas, GrantID: "g-2"}))

	got, err := store.GetIntegrationByGrant(ctx, "g-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.UserID)

	got, err = store.GetIntegrationByGrant(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.GetIntegrationByGrant(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTouchIntegrationSync(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := &models.IntegrationRecord{UserID: "u1", Provider: models.ProviderGoogle}
	require.NoError(t, store.SaveIntegration(ctx, rec))

	at := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.TouchIntegrationSync(ctx, rec.ID, at))

	got, err := store.GetIntegration(ctx, "u1", models.ProviderGoogle)
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncAt)
	assert.True(t, got.LastSyncAt.Equal(at))
}

func TestListIntegrationsAndActiveUsers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveIntegration(ctx, &models.IntegrationRecord{UserID: "u1", Provider: models.ProviderNylas, GrantID: "g1"}))
	require.NoError(t, store.SaveIntegration(ctx, &models.IntegrationRecord{UserID: "u1", Provider: models.ProviderGoogle}))
	inactive := &models.IntegrationRecord{UserID: "u2", Provider: models.ProviderNylas, GrantID: "g2"}
	require.NoError(t, store.SaveIntegration(ctx, inactive))
	require.NoError(t, store.DeactivateIntegration(ctx, inactive.ID))

	list, err := store.ListIntegrations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.ProviderGoogle, list[0].Provider)
	assert.Equal(t, models.ProviderNylas, list[1].Provider)

	users, err := store.ListActiveUserIDs(ctx, models.ProviderNylas)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)
}
