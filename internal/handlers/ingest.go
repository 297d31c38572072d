package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"substack-digest-go/internal/ingest"
	"substack-digest-go/internal/models"
)

// RunIngest triggers one synchronous ingestion run
func (h *Handlers) RunIngest(c *gin.Context) {
	daysBack := 30
	if v := c.Query("days_back"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_days_back",
				Message: "days_back must be a non-negative integer",
				Code:    http.StatusBadRequest,
			})
			return
		}
		daysBack = n
	}

	emails, err := h.pipeline.FetchDailySubstacks(c.Request.Context(), daysBack)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ingest.ErrRateLimited):
			status = http.StatusTooManyRequests
		case errors.Is(err, ingest.ErrProviderList):
			status = http.StatusBadGateway
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "ingest_failed",
			Message: err.Error(),
			Code:    status,
		})
		return
	}

	c.JSON(http.StatusOK, models.IngestResponse{
		DaysBack: daysBack,
		Stored:   len(emails),
		RanAt:    time.Now(),
	})
}

// GetStats returns aggregate email counts
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.repo.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "stats_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetEmails returns the newest stored emails
func (h *Handlers) GetEmails(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	emails, err := h.repo.RecentEmails(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "emails_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, emails)
}
