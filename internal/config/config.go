package config

import (
	"fmt"

	"mining-invest-go/internal/models"

	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from the environment. Defaults live on the
// struct tags in models; only malformed values produce an error.
func Load() (*models.Config, error) {
	var cfg models.Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to process configuration: %w", err)
	}
	return &cfg, nil
}
