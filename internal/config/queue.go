package config

import (
	"fmt"
)

// QueueConfig configures RabbitMQ event publication. The section is optional:
// a nil QueueConfig disables publication entirely.
type QueueConfig struct {
	QueueUser     string `mapstructure:"queue-user"`
	QueuePassword string `mapstructure:"queue-password"`
	Url           string `mapstructure:"url"`
	QueueName     string `mapstructure:"queue-name"`
	QueueType     string `mapstructure:"queue-type"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.QueueUser == "" {
		return fmt.Errorf("queue-user must be set")
	}
	if cfg.QueuePassword == "" {
		return fmt.Errorf("queue-password must be set")
	}
	if cfg.Url == "" {
		return fmt.Errorf("queue url must be set")
	}
	if cfg.QueueName == "" {
		return fmt.Errorf("queue-name must be set")
	}
	switch cfg.QueueType {
	case "classic", "quorum":
	default:
		return fmt.Errorf("queue-type must be one of {classic, quorum}, got %q", cfg.QueueType)
	}

	return nil
}
