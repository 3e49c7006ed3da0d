package api

import (
	"fmt"
	"net/http"

	"mining-invest-go/internal/accrual"
	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (s *Service) createServer(c *gin.Context) {
	var req models.CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	server, err := s.store.CreateServer(c.Request.Context(), req.Name, req.Location, req.HashRate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, server)
}

func (s *Service) listServers(c *gin.Context) {
	servers, err := s.store.GetServers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

func (s *Service) createContract(c *gin.Context) {
	var req models.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	percent, err := decimal.NewFromString(req.PeriodReturnPercent)
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid period_return_percent %q", store.ErrValidation, req.PeriodReturnPercent))
		return
	}
	// Reject unknown periods at the door; the batch treats them as hard
	// failures, so they must never enter the catalog.
	if _, err := accrual.ParsePeriod(req.Period); err != nil {
		respondError(c, fmt.Errorf("%w: %v", store.ErrValidation, err))
		return
	}

	contract, err := s.store.CreateContract(c.Request.Context(), store.CreateContractParams{
		ServerId:            req.ServerId,
		Name:                req.Name,
		PeriodReturnPercent: percent,
		Period:              req.Period,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (s *Service) listContracts(c *gin.Context) {
	contracts, err := s.store.GetContracts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

func (s *Service) updateContract(c *gin.Context) {
	var req models.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	var params store.UpdateContractParams
	if req.PeriodReturnPercent != "" {
		percent, err := decimal.NewFromString(req.PeriodReturnPercent)
		if err != nil {
			respondError(c, fmt.Errorf("%w: invalid period_return_percent %q", store.ErrValidation, req.PeriodReturnPercent))
			return
		}
		params.PeriodReturnPercent = &percent
	}
	if req.Period != "" {
		if _, err := accrual.ParsePeriod(req.Period); err != nil {
			respondError(c, fmt.Errorf("%w: %v", store.ErrValidation, err))
			return
		}
		params.Period = &req.Period
	}
	params.Active = req.Active

	contract, err := s.store.UpdateContract(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}
