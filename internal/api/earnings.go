package api

import (
	"net/http"
	"strconv"

	"mining-invest-go/internal/models"

	"github.com/gin-gonic/gin"
)

// processDailyEarnings triggers one accrual batch pass and returns the
// aggregate counts. A pass already in flight yields 409; the caller
// retries later rather than queueing behind the lock.
func (s *Service) processDailyEarnings(c *gin.Context) {
	summary, err := s.runner.RunDailyAccrual(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Service) accrualStatus(c *gin.Context) {
	last, err := s.store.GetLastAccrualRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AccrualStatusResponse{LastRunAt: last})
}

func (s *Service) listEarnings(c *gin.Context) {
	subscriptionId := c.Param("id")
	limit := parsePositiveInt(c.Query("limit"), 50)
	offset := parsePositiveInt(c.Query("offset"), 0)

	// Resolve first so an unknown subscription is a 404, not an empty list.
	if _, err := s.store.GetSubscriptionById(c.Request.Context(), subscriptionId); err != nil {
		respondError(c, err)
		return
	}

	earnings, err := s.store.GetEarnings(c.Request.Context(), subscriptionId, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
