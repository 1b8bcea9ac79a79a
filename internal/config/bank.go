package config

import (
	"fmt"
	"time"
)

// BankConfig configures the client for the external asset-transfer service
// that holds the pool vaults and the stakers' accounts.
type BankConfig struct {
	BaseURL       string        `mapstructure:"base-url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
}

func (cfg *BankConfig) Validate() error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("bank base-url must be set")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("bank timeout must be positive")
	}
	if cfg.MaxRetryTimes == 0 {
		return fmt.Errorf("bank max-retry-times must be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("bank retry-interval must be positive")
	}

	return nil
}
