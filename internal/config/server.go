package config

import (
	"fmt"
	"net"
	"time"
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout"`
}

func (cfg *ServerConfig) Validate() error {
	if cfg.Host == "" {
		return fmt.Errorf("server host must be set")
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return fmt.Errorf("server port must be in the range 1024-65535")
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("server write-timeout must be positive")
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("server read-timeout must be positive")
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("server idle-timeout must be positive")
	}

	return nil
}

func (cfg *ServerConfig) ListenAddr() string {
	return net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
}
