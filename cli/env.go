// ABOUTME: Shared command environment: config, store, logger, and service builders
// ABOUTME: Commands receive an Env so they can be run against a test store
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/shadecal/config"
	"github.com/harperreed/shadecal/db"
	"github.com/harperreed/shadecal/notify"
	"github.com/harperreed/shadecal/nylas"
	"github.com/harperreed/shadecal/queue"
	"github.com/harperreed/shadecal/sync"
)

type Env struct {
	Config   *config.Config
	Store    *db.Store
	Logger   *log.Logger
	Location *time.Location
	Out      io.Writer

	// API overrides the Nylas client, for tests.
	API sync.CalendarAPI
	// Now overrides the clock, for tests.
	Now func() time.Time

	broker queue.Client
}

// NewEnv opens the configured store.
func NewEnv(cfg *config.Config, logger *log.Logger) (*Env, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Env{
		Config:   cfg,
		Store:    store,
		Logger:   logger,
		Location: loc,
		Out:      os.Stdout,
	}, nil
}

func (e *Env) Close() error {
	if e.broker != nil {
		_ = e.broker.Close()
		e.broker = nil
	}
	if e.Store != nil {
		return e.Store.Close()
	}
	return nil
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Broker connects to RabbitMQ once. It returns nil when no URL is configured.
func (e *Env) Broker() (queue.Client, error) {
	if e.broker != nil || e.Config.RabbitMQURL == "" {
		return e.broker, nil
	}
	client, err := queue.NewRabbitClient(e.Config.RabbitMQURL, e.Config.NotifyQueue)
	if err != nil {
		return nil, err
	}
	e.broker = client
	return client, nil
}

// Notifier stores notifications and, when a broker is reachable, publishes
// them. A broker that cannot be reached only loses the publish.
func (e *Env) Notifier() *notify.Notifier {
	broker, err := e.Broker()
	if err != nil {
		e.Logger.Warn("notification broker unavailable; notifications will only be stored", "err", err)
	}
	if broker == nil {
		return notify.New(e.Store, nil, e.Logger)
	}
	return notify.New(e.Store, broker, e.Logger)
}

// Engine builds a sync engine over the configured provider.
func (e *Env) Engine() *sync.Engine {
	api := e.API
	if api == nil {
		api = nylas.NewClient(e.Config.NylasAPIKey, e.Config.NylasAPIURI, e.Logger)
	}
	return sync.NewEngine(e.Store, api, e.Notifier(), sync.Options{
		Location:       e.Location,
		PullWindowDays: e.Config.PullWindowDays,
		PushWindowDays: e.Config.PushWindowDays,
		AppURL:         e.Config.AppURL,
		Logger:         e.Logger,
		Now:            e.Now,
	})
}
