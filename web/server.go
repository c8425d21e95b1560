// ABOUTME: HTTP server for provider webhooks, sync triggers, and the ICS feed
// ABOUTME: Built on gin with graceful shutdown driven by the caller's context
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/sync"
)

const shutdownTimeout = 5 * time.Second

// Syncer runs sync cycles and applies webhook deliveries.
type Syncer interface {
	Pull(ctx context.Context, userID string) (sync.Result, error)
	Push(ctx context.Context, userID string) (sync.Result, error)
	HandleWebhook(ctx context.Context, n models.WebhookNotification) (sync.WebhookOutcome, error)
}

// AppointmentLister reads a user's appointment book.
type AppointmentLister interface {
	ListAppointments(ctx context.Context, userID string, limit int) ([]models.Appointment, error)
}

type Options struct {
	// WebhookSecret enables signature verification when non-empty.
	WebhookSecret string
	Logger        *log.Logger
	Now           func() time.Time
}

type Server struct {
	syncer Syncer
	store  AppointmentLister
	secret string
	logger *log.Logger
	now    func() time.Time
	router *gin.Engine
}

func NewServer(syncer Syncer, store AppointmentLister, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		syncer: syncer,
		store:  store,
		secret: opts.WebhookSecret,
		logger: logger.WithPrefix("web"),
		now:    opts.Now,
	}

	if s.secret == "" {
		s.logger.Warn("webhook signature verification is disabled; set NYLAS_WEBHOOK_SECRET to enable it")
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.router = r
	s.routes()
	return s
}

// Handler returns the router for use in tests or another server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.GET("/healthz", s.health)

	s.router.GET("/webhooks/nylas", s.webhookChallenge)
	s.router.POST("/webhooks/nylas", s.webhook)

	s.router.GET("/calendar.ics", s.calendarFeed)
	s.router.POST("/sync/pull", s.pull)
	s.router.POST("/sync/push", s.push)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
