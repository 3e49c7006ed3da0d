package api

import (
	"net/http"

	"mining-invest-go/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Service) createSubscription(c *gin.Context) {
	var req models.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	autoAccrue := true
	if req.AutoAccrue != nil {
		autoAccrue = *req.AutoAccrue
	}

	sub, err := s.store.CreateSubscription(c.Request.Context(), req.MinerId, req.ContractId, autoAccrue)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// getSubscription returns the running total alongside the ledger-derived
// sum so callers can spot drift between the two.
func (s *Service) getSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	subscriptionId := c.Param("id")

	sub, err := s.store.GetSubscriptionById(ctx, subscriptionId)
	if err != nil {
		respondError(c, err)
		return
	}
	ledgerTotal, err := s.store.SumEarnings(ctx, subscriptionId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SubscriptionDetail{
		Subscription: *sub,
		LedgerTotal:  ledgerTotal,
	})
}

func (s *Service) listMinerSubscriptions(c *gin.Context) {
	subs, err := s.store.GetMinerSubscriptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}
