// ABOUTME: Sync engine wiring the store, calendar provider, and notifier together
// ABOUTME: Runs pull cycles (provider to local) and tracks per-user sync status
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/shadecal/models"
)

const (
	DefaultPullWindowDays = 30
	DefaultPushWindowDays = 90
)

// DataStore is the persistence the engine needs.
type DataStore interface {
	Mutator
	GetIntegration(ctx context.Context, userID string, provider models.Provider) (*models.IntegrationRecord, error)
	GetIntegrationByGrant(ctx context.Context, grantID string) (*models.IntegrationRecord, error)
	ListLinkedAppointments(ctx context.Context, userID string, provider models.Provider) ([]models.Appointment, error)
	ListAppointmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Appointment, error)
	SetAppointmentEventID(ctx context.Context, id uuid.UUID, provider models.Provider, eventID string) error
	TouchIntegrationSync(ctx context.Context, id uuid.UUID, at time.Time) error
	DeactivateIntegration(ctx context.Context, id uuid.UUID) error
	UpdateSyncStatus(ctx context.Context, service, status string, errorMsg *string) error
}

// CalendarAPI is the grant-scoped provider API used for pull and push.
type CalendarAPI interface {
	ListEvents(ctx context.Context, grantID, calendarID string, from, to time.Time) ([]models.RemoteEvent, error)
	CreateEvent(ctx context.Context, grantID, calendarID string, payload models.EventPayload) (string, error)
	UpdateEvent(ctx context.Context, grantID, calendarID, eventID string, payload models.EventPayload) error
}

// EventSource lists events for a single already-authorized account.
type EventSource interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]models.RemoteEvent, error)
}

// Notifier delivers user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

type Options struct {
	// Location is the zone all-day events are anchored in. Defaults to UTC.
	Location       *time.Location
	PullWindowDays int
	PushWindowDays int
	// AppURL prefixes action links in notifications.
	AppURL string
	Logger *log.Logger
	Now    func() time.Time
}

type Engine struct {
	store    DataStore
	api      CalendarAPI
	notifier Notifier
	opts     Options
	logger   *log.Logger
}

// NewEngine builds an engine. notifier may be nil, in which case webhook
// changes are applied without notifying anyone.
func NewEngine(store DataStore, api CalendarAPI, notifier Notifier, opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PullWindowDays <= 0 {
		opts.PullWindowDays = DefaultPullWindowDays
	}
	if opts.PushWindowDays <= 0 {
		opts.PushWindowDays = DefaultPushWindowDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		store:    store,
		api:      api,
		notifier: notifier,
		opts:     opts,
		logger:   logger.WithPrefix("sync"),
	}
}

// Pull fetches the user's provider events for the pull window and reconciles
// them into the local appointment book. A failed fetch aborts the cycle.
func (e *Engine) Pull(ctx context.Context, userID string) (Result, error) {
	integ, err := e.activeIntegration(ctx, userID, models.ProviderNylas)
	if err != nil {
		return Result{}, err
	}
	if integ.GrantID == "" {
		return Result{}, models.NewConfigurationError("nylas integration for user %s has no grant", userID)
	}

	now := e.opts.Now()
	from, to := now, now.AddDate(0, 0, e.opts.PullWindowDays)

	return e.runPull(ctx, userID, integ, from, to, func() ([]models.RemoteEvent, error) {
		return e.api.ListEvents(ctx, integ.GrantID, integ.CalendarID, from, to)
	})
}

// PullGoogle reconciles events from a directly linked Google calendar,
// correlating on the Google event id.
func (e *Engine) PullGoogle(ctx context.Context, userID string, source EventSource) (Result, error) {
	if source == nil {
		return Result{}, models.NewConfigurationError("google calendar is not authorized")
	}
	integ, err := e.activeIntegration(ctx, userID, models.ProviderGoogle)
	if err != nil {
		return Result{}, err
	}

	now := e.opts.Now()
	from, to := now, now.AddDate(0, 0, e.opts.PullWindowDays)

	return e.runPull(ctx, userID, integ, from, to, func() ([]models.RemoteEvent, error) {
		return source.ListEvents(ctx, from, to)
	})
}

func (e *Engine) runPull(ctx context.Context, userID string, integ *models.IntegrationRecord, from, to time.Time, fetch func() ([]models.RemoteEvent, error)) (Result, error) {
	provider := integ.Provider
	service := SyncService(provider, userID)
	e.setStatus(ctx, service, models.SyncSyncing, nil)

	remote, err := fetch()
	if err != nil {
		return Result{}, e.fail(ctx, service, fmt.Errorf("failed to fetch %s events: %w", provider, err))
	}

	linked, err := e.store.ListLinkedAppointments(ctx, userID, provider)
	if err != nil {
		return Result{}, e.fail(ctx, service, fmt.Errorf("failed to load local appointments: %w", err))
	}
	local := make(map[string]models.Appointment, len(linked))
	for _, a := range linked {
		local[a.EventID(provider)] = a
	}

	plan := Reconcile(Input{
		UserID:   userID,
		Provider: provider,
		Remote:   remote,
		Local:    local,
		From:     from,
		To:       to,
		Location: e.opts.Location,
	})
	res := Apply(ctx, e.store, provider, plan, e.logger)

	if err := e.store.TouchIntegrationSync(ctx, integ.ID, e.opts.Now()); err != nil {
		e.logger.Warn("failed to record last sync", "user", userID, "err", err)
	}
	e.setStatus(ctx, service, models.SyncIdle, nil)

	e.logger.Info("pull complete",
		"user", userID,
		"provider", provider,
		"synced", res.Synced,
		"updated", res.Updated,
		"deleted", res.Deleted,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"total", res.Total,
	)
	return res, nil
}

func (e *Engine) activeIntegration(ctx context.Context, userID string, provider models.Provider) (*models.IntegrationRecord, error) {
	if userID == "" {
		return nil, models.NewConfigurationError("user id is required")
	}
	integ, err := e.store.GetIntegration(ctx, userID, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s integration: %w", provider, err)
	}
	if integ == nil {
		return nil, models.NewConfigurationError("no %s integration for user %s", provider, userID)
	}
	if !integ.IsActive {
		return nil, models.NewConfigurationError("%s integration for user %s is inactive", provider, userID)
	}
	return integ, nil
}

// SyncService names the sync_state row tracking one user's provider link.
func SyncService(provider models.Provider, userID string) string {
	return string(provider) + ":" + userID
}

func (e *Engine) setStatus(ctx context.Context, service, status string, errMsg *string) {
	if err := e.store.UpdateSyncStatus(ctx, service, status, errMsg); err != nil {
		e.logger.Warn("failed to update sync status", "service", service, "status", status, "err", err)
	}
}

func (e *Engine) fail(ctx context.Context, service string, err error) error {
	msg := err.Error()
	e.setStatus(ctx, service, models.SyncError, &msg)
	return err
}
