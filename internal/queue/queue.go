package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/types"
)

// StakingEvent is the message published for every committed ledger operation.
// Fields not meaningful for a given event type are omitted from the payload.
type StakingEvent struct {
	EventType    types.EventTypes `json:"event_type"`
	Owner        string           `json:"owner,omitempty"`
	Amount       uint64           `json:"amount,omitempty"`
	RewardAmount uint64           `json:"reward_amount,omitempty"`
	RewardRate   uint64           `json:"reward_rate,omitempty"`
	TotalStaked  uint64           `json:"total_staked"`
	Timestamp    int64            `json:"timestamp"`
}

func NewPoolInitializedEvent(admin string, rewardRate uint64, timestamp int64) StakingEvent {
	return StakingEvent{
		EventType:  types.EventPoolInitialized,
		Owner:      admin,
		RewardRate: rewardRate,
		Timestamp:  timestamp,
	}
}

func NewStakedEvent(owner string, amount, totalStaked uint64, timestamp int64) StakingEvent {
	return StakingEvent{
		EventType:   types.EventStaked,
		Owner:       owner,
		Amount:      amount,
		TotalStaked: totalStaked,
		Timestamp:   timestamp,
	}
}

func NewUnstakedEvent(owner string, amount, totalStaked uint64, timestamp int64) StakingEvent {
	return StakingEvent{
		EventType:   types.EventUnstaked,
		Owner:       owner,
		Amount:      amount,
		TotalStaked: totalStaked,
		Timestamp:   timestamp,
	}
}

func NewRewardsClaimedEvent(owner string, rewardAmount uint64, timestamp int64) StakingEvent {
	return StakingEvent{
		EventType:    types.EventRewardsClaimed,
		Owner:        owner,
		RewardAmount: rewardAmount,
		Timestamp:    timestamp,
	}
}

func NewRewardRateUpdatedEvent(rewardRate, totalStaked uint64, timestamp int64) StakingEvent {
	return StakingEvent{
		EventType:   types.EventRewardRateUpdated,
		RewardRate:  rewardRate,
		TotalStaked: totalStaked,
		Timestamp:   timestamp,
	}
}

type QueueManager struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

// NewQueueManager connects to RabbitMQ and declares the durable staking-events
// queue. A nil cfg disables publication: the returned manager is nil, and every
// method on a nil manager is a no-op.
func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	if cfg == nil {
		return nil, nil
	}

	amqpURI := fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url)
	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue at %s: %w", cfg.Url, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Confirm mode so a publish can be awaited until the broker owns the message.
	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to put channel into confirm mode: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		amqp.Table{"x-queue-type": cfg.QueueType},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	return &QueueManager{
		conn:      conn,
		channel:   channel,
		queueName: cfg.QueueName,
	}, nil
}

// PushStakingEvent publishes the event and waits for the broker confirm.
func (qm *QueueManager) PushStakingEvent(ctx context.Context, ev *StakingEvent) error {
	if qm == nil {
		return nil
	}

	body, err := json.Marshal(ev)
	if err != nil {
		metrics.RecordQueueSendError()
		return fmt.Errorf("failed to marshal %s event: %w", ev.EventType, err)
	}

	confirmation, err := qm.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		"",           // default exchange
		qm.queueName, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Unix(ev.Timestamp, 0),
			Body:         body,
		},
	)
	if err != nil {
		metrics.RecordQueueSendError()
		return fmt.Errorf("failed to publish %s event: %w", ev.EventType, err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		metrics.RecordQueueSendError()
		return fmt.Errorf("failed to confirm %s event: %w", ev.EventType, err)
	}
	if !acked {
		metrics.RecordQueueSendError()
		return fmt.Errorf("%s event nacked by the broker", ev.EventType)
	}

	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	if qm == nil {
		return
	}

	log.Info().Msg("Shutting down queue manager")

	if err := qm.channel.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue connection")
	}
}
