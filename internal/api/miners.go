package api

import (
	"fmt"
	"net/http"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/gin-gonic/gin"
)

func (s *Service) createMiner(c *gin.Context) {
	var req models.CreateMinerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	miner, err := s.store.CreateMiner(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, miner)
}

func (s *Service) getMiner(c *gin.Context) {
	miner, err := s.store.GetMinerById(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, miner)
}

// submitKyc moves a miner into the pending verification queue.
func (s *Service) submitKyc(c *gin.Context) {
	s.setKycStatus(c, models.KycStatusPending, false)
}

// approveKyc requires the verification fee to have been paid first.
func (s *Service) approveKyc(c *gin.Context) {
	s.setKycStatus(c, models.KycStatusApproved, true)
}

func (s *Service) rejectKyc(c *gin.Context) {
	s.setKycStatus(c, models.KycStatusRejected, false)
}

func (s *Service) setKycStatus(c *gin.Context, status string, requireFeePaid bool) {
	minerId := c.Param("minerId")
	ctx := c.Request.Context()

	if requireFeePaid {
		miner, err := s.store.GetMinerById(ctx, minerId)
		if err != nil {
			respondError(c, err)
			return
		}
		if !miner.KycFeePaid {
			respondError(c, fmt.Errorf("%w: kyc fee not paid for miner %s", store.ErrValidation, minerId))
			return
		}
	}

	if err := s.store.SetMinerKycStatus(ctx, minerId, status); err != nil {
		respondError(c, err)
		return
	}

	miner, err := s.store.GetMinerById(ctx, minerId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, miner)
}
