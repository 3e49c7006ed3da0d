package common

import (
	"context"
	"fmt"

	"mining-invest-go/internal/store"

	"go.uber.org/zap"
)

// MinerInfo represents simplified miner information for command-line utilities
type MinerInfo struct {
	Id    string
	Name  string
	Email string
}

// ResolveMiners retrieves miners based on an optional email filter.
// If emailFilter is provided, returns the single miner with that email;
// otherwise returns all active miners.
func ResolveMiners(ctx context.Context, dbService store.Store, emailFilter string, logger *zap.Logger) ([]MinerInfo, error) {
	var miners []MinerInfo

	if emailFilter != "" {
		logger.Info("Looking up miner by email", zap.String("email", emailFilter))
		miner, err := dbService.GetMinerByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("miner not found: %w", err)
		}
		miners = append(miners, MinerInfo{
			Id:    miner.Id,
			Name:  miner.Name,
			Email: miner.Email,
		})
	} else {
		allMiners, err := dbService.GetMiners(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get miners: %w", err)
		}
		for _, m := range allMiners {
			miners = append(miners, MinerInfo{
				Id:    m.Id,
				Name:  m.Name,
				Email: m.Email,
			})
		}
	}

	logger.Info("Retrieved miners", zap.Int("count", len(miners)))
	return miners, nil
}
