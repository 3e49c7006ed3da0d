package api

import (
	"fmt"
	"net/http"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (s *Service) createTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid amount %q", store.ErrValidation, req.Amount))
		return
	}

	tx, err := s.store.CreateTransaction(c.Request.Context(), store.CreateTransactionParams{
		MinerId:        req.MinerId,
		SubscriptionId: req.SubscriptionId,
		Type:           req.Type,
		Method:         req.Method,
		Amount:         amount,
		ExternalTxId:   req.ExternalTxId,
		Reference:      req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (s *Service) confirmTransaction(c *gin.Context) {
	tx, err := s.store.ConfirmTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Service) rejectTransaction(c *gin.Context) {
	tx, err := s.store.RejectTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Service) listMinerTransactions(c *gin.Context) {
	limit := parsePositiveInt(c.Query("limit"), 50)
	offset := parsePositiveInt(c.Query("offset"), 0)

	txs, err := s.store.GetMinerTransactions(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
