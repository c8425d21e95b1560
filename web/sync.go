// ABOUTME: Sync trigger endpoints and the per-user ICS feed
// ABOUTME: Maps configuration and provider errors onto HTTP status codes
package web

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/shadecal/ics"
	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/sync"
)

func (s *Server) pull(c *gin.Context) {
	s.runCycle(c, "pull", s.syncer.Pull)
}

func (s *Server) push(c *gin.Context) {
	s.runCycle(c, "push", s.syncer.Push)
}

func (s *Server) runCycle(c *gin.Context, name string, cycle func(context.Context, string) (sync.Result, error)) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	res, err := cycle(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error(name+" failed", "user", userID, "err", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) calendarFeed(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.String(http.StatusBadRequest, "user_id is required")
		return
	}

	appts, err := s.store.ListAppointments(c.Request.Context(), userID, 0)
	if err != nil {
		s.logger.Error("failed to list appointments", "user", userID, "err", err)
		c.String(http.StatusInternalServerError, "internal")
		return
	}

	var buf bytes.Buffer
	if err := ics.Encode(&buf, appts, s.now()); err != nil {
		s.logger.Error("failed to encode feed", "user", userID, "err", err)
		c.String(http.StatusInternalServerError, "internal")
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func statusFor(err error) int {
	switch {
	case models.IsConfigurationError(err):
		return http.StatusBadRequest
	case models.IsIntegrationError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
