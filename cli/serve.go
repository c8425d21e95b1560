// ABOUTME: Long-running service command
// ABOUTME: Serves webhooks and the ICS feed, optionally running scheduled sync cycles
package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/sync"
	"github.com/harperreed/shadecal/web"
)

const minSyncInterval = 5 * time.Minute

type userLister interface {
	ListActiveUserIDs(ctx context.Context, provider models.Provider) ([]string, error)
}

type cycleRunner interface {
	Pull(ctx context.Context, userID string) (sync.Result, error)
	Push(ctx context.Context, userID string) (sync.Result, error)
}

// ServeCommand runs the HTTP server until interrupted.
func ServeCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", env.Config.Addr, "Listen address")
	interval := fs.Duration("interval", 0, "Run pull and push on this interval (0 disables, minimum 5m)")
	users := fs.String("users", "", "Comma-separated user IDs for scheduled sync (default: every active user)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := env.Engine()
	srv := web.NewServer(engine, env.Store, web.Options{
		WebhookSecret: env.Config.NylasWebhookSecret,
		Logger:        env.Logger,
		Now:           env.Now,
	})

	if *interval > 0 {
		every := effectiveInterval(*interval, env.Logger)
		env.Logger.Info("scheduled sync enabled", "every", every)
		go runScheduled(ctx, env.Logger, env.Store, engine, every, *users)
	}

	return srv.Start(ctx, *addr)
}

func effectiveInterval(d time.Duration, logger *log.Logger) time.Duration {
	if d < minSyncInterval {
		logger.Warn("sync interval raised to the minimum", "requested", d, "minimum", minSyncInterval)
		return minSyncInterval
	}
	return d
}

func runScheduled(ctx context.Context, logger *log.Logger, store userLister, runner cycleRunner, every time.Duration, usersFlag string) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		runCycle(ctx, logger, store, runner, usersFlag)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runCycle pulls then pushes for each user. One user's failure does not stop the others.
func runCycle(ctx context.Context, logger *log.Logger, store userLister, runner cycleRunner, usersFlag string) {
	users, err := parseUserIDs(ctx, store, usersFlag)
	if err != nil {
		logger.Error("failed to resolve users for scheduled sync", "err", err)
		return
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return
		}

		pulled, err := runner.Pull(ctx, user)
		if err != nil {
			logger.Error("scheduled pull failed", "user", user, "err", err)
			continue
		}
		pushed, err := runner.Push(ctx, user)
		if err != nil {
			logger.Error("scheduled push failed", "user", user, "err", err)
			continue
		}
		logger.Info("scheduled sync complete", "user", user, "pulled", pulled.Total, "pushed", pushed.Total, "failed", pulled.Failed+pushed.Failed)
	}
}

// parseUserIDs splits a comma-separated list, falling back to every user
// with an active Nylas integration.
func parseUserIDs(ctx context.Context, store userLister, csv string) ([]string, error) {
	var ids []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	if len(ids) > 0 {
		return ids, nil
	}
	return store.ListActiveUserIDs(ctx, models.ProviderNylas)
}
