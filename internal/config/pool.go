package config

import (
	"fmt"
)

// PoolConfig carries deployment-wide ledger settings. Pool state itself
// (admin, rate, vaults) lives in the database and is written by init-pool.
type PoolConfig struct {
	// AddressPrefix is the bech32 human-readable prefix expected on every
	// owner and account identifier handled by this deployment.
	AddressPrefix string `mapstructure:"address-prefix"`
}

func (cfg *PoolConfig) Validate() error {
	if cfg.AddressPrefix == "" {
		return fmt.Errorf("pool address-prefix must be set")
	}

	return nil
}
