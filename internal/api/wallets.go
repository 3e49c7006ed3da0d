package api

import (
	"net/http"

	"mining-invest-go/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Service) createWallet(c *gin.Context) {
	var req models.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	wallet, err := s.store.CreateWallet(c.Request.Context(), req.Label, req.Asset, req.Network, req.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wallet)
}

func (s *Service) listWallets(c *gin.Context) {
	wallets, err := s.store.GetWallets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

func (s *Service) createBank(c *gin.Context) {
	var req models.CreateBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	bank, err := s.store.CreateBank(c.Request.Context(), req.BankName, req.AccountName, req.AccountNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bank)
}

func (s *Service) listBanks(c *gin.Context) {
	banks, err := s.store.GetBanks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banks": banks})
}
