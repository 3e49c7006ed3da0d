package common

import (
	"fmt"
	"os"
	"path/filepath"

	"mining-invest-go/internal/accrual"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// ServerEntry is a seed catalog mining server.
type ServerEntry struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	HashRate string `yaml:"hash_rate"`
}

// ContractEntry is a seed catalog contract attached to a server by name.
type ContractEntry struct {
	Name                string `yaml:"name"`
	Server              string `yaml:"server"`
	PeriodReturnPercent string `yaml:"period_return_percent"`
	Period              string `yaml:"period"`
}

type ContractCatalog struct {
	Servers   []ServerEntry   `yaml:"servers"`
	Contracts []ContractEntry `yaml:"contracts"`
}

// LoadContractCatalog reads and validates the seed catalog. Every
// contract must reference a server defined in the same file, and its
// period must be one the accrual kernel understands.
func LoadContractCatalog(catalogFile string) (*ContractCatalog, error) {
	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	var catalog ContractCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", catalogFile, err)
	}

	serverNames := make(map[string]bool, len(catalog.Servers))
	for i, server := range catalog.Servers {
		if server.Name == "" {
			return nil, fmt.Errorf("server at index %d missing name", i)
		}
		if serverNames[server.Name] {
			return nil, fmt.Errorf("duplicate server name %q", server.Name)
		}
		serverNames[server.Name] = true
	}

	for i, contract := range catalog.Contracts {
		if contract.Name == "" {
			return nil, fmt.Errorf("contract at index %d missing name", i)
		}
		if !serverNames[contract.Server] {
			return nil, fmt.Errorf("contract %q references unknown server %q", contract.Name, contract.Server)
		}
		percent, err := decimal.NewFromString(contract.PeriodReturnPercent)
		if err != nil {
			return nil, fmt.Errorf("contract %q has invalid period_return_percent %q", contract.Name, contract.PeriodReturnPercent)
		}
		if percent.IsNegative() {
			return nil, fmt.Errorf("contract %q has negative period_return_percent", contract.Name)
		}
		if _, err := accrual.ParsePeriod(contract.Period); err != nil {
			return nil, fmt.Errorf("contract %q: %v", contract.Name, err)
		}
	}

	return &catalog, nil
}
