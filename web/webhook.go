// ABOUTME: Nylas webhook endpoint: challenge handshake, signature check, and delivery handling
// ABOUTME: Processing failures still answer 200 so the provider does not retry forever
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/nylas"
	"github.com/harperreed/shadecal/sync"
)

const maxWebhookBody = 1 << 20

// webhookChallenge echoes the provider's ownership challenge verbatim.
func (s *Server) webhookChallenge(c *gin.Context) {
	challenge := c.Query("challenge")
	if challenge == "" {
		c.String(http.StatusBadRequest, "missing challenge")
		return
	}
	c.Data(http.StatusOK, "text/plain", []byte(challenge))
}

func (s *Server) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.acknowledgeFailure(c, fmt.Errorf("failed to read body: %w", err))
		return
	}

	if s.secret != "" && !nylas.VerifySignature(s.secret, body, c.GetHeader(nylas.SignatureHeader)) {
		s.logger.Warn("rejected webhook with bad signature", "remote", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": nylas.ErrInvalidSignature.Error()})
		return
	}

	n, err := nylas.DecodeWebhook(body)
	if err != nil {
		s.acknowledgeFailure(c, err)
		return
	}

	out, err := s.apply(c.Request.Context(), n)
	if err != nil {
		s.acknowledgeFailure(c, err)
		return
	}

	s.logger.Info("webhook handled", "type", out.Type, "action", out.Action, "appointment", out.AppointmentID)
	c.JSON(http.StatusOK, gin.H{
		"received":       true,
		"type":           out.Type,
		"action":         out.Action,
		"appointment_id": out.AppointmentID,
	})
}

// apply runs the delivery, turning a panic into an error so the provider
// still gets its acknowledgement.
func (s *Server) apply(ctx context.Context, n models.WebhookNotification) (out sync.WebhookOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %s: %v", n.Type, r)
		}
	}()
	return s.syncer.HandleWebhook(ctx, n)
}

func (s *Server) acknowledgeFailure(c *gin.Context, err error) {
	s.logger.Error("webhook processing failed", "err", err)
	c.JSON(http.StatusOK, gin.H{"received": true, "error": err.Error()})
}
