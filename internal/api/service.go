package api

import (
	"errors"
	"net/http"

	"mining-invest-go/internal/accrual"
	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service exposes the platform over HTTP. All state lives behind the
// store; handlers stay thin and translate store errors to status codes.
type Service struct {
	store  store.Store
	runner *accrual.Runner
}

func NewService(st store.Store, runner *accrual.Runner) *Service {
	return &Service{
		store:  st,
		runner: runner,
	}
}

// Router builds the gin engine with every route registered.
func (s *Service) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", s.healthCheck)

	router.POST("/earnings/process-daily", s.processDailyEarnings)
	router.GET("/earnings/status", s.accrualStatus)

	router.GET("/servers", s.listServers)
	router.POST("/servers", s.createServer)

	router.GET("/contracts", s.listContracts)
	router.POST("/contracts", s.createContract)
	router.PUT("/contracts/:id", s.updateContract)

	router.GET("/wallets", s.listWallets)
	router.POST("/wallets", s.createWallet)
	router.GET("/banks", s.listBanks)
	router.POST("/banks", s.createBank)

	router.POST("/miners", s.createMiner)
	router.GET("/miners/:id", s.getMiner)
	router.GET("/miners/:id/subscriptions", s.listMinerSubscriptions)
	router.GET("/miners/:id/transactions", s.listMinerTransactions)

	router.POST("/kyc/:minerId/submit", s.submitKyc)
	router.POST("/kyc/:minerId/approve", s.approveKyc)
	router.POST("/kyc/:minerId/reject", s.rejectKyc)

	router.POST("/subscriptions", s.createSubscription)
	router.GET("/subscriptions/:id", s.getSubscription)
	router.GET("/subscriptions/:id/earnings", s.listEarnings)

	router.POST("/transactions", s.createTransaction)
	router.POST("/transactions/:id/confirm", s.confirmTransaction)
	router.POST("/transactions/:id/reject", s.rejectTransaction)

	return router
}

func (s *Service) healthCheck(c *gin.Context) {
	if _, err := s.store.GetMiners(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps store sentinel errors onto HTTP status codes.
// Internal errors are logged but never leaked to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrDuplicateAccrual),
		errors.Is(err, store.ErrDuplicateTransaction),
		errors.Is(err, store.ErrConcurrentModification):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, accrual.ErrAccrualInProgress):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	default:
		zap.L().Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
	}
}
