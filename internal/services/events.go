package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/queue"
)

// emitEvent publishes best-effort: a committed ledger operation is never
// failed over a broker problem. PushStakingEvent counts failures.
func (s *Service) emitEvent(ctx context.Context, ev queue.StakingEvent) {
	if err := s.queueManager.PushStakingEvent(ctx, &ev); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("event_type", ev.EventType.String()).
			Msg("failed to push the staking event to the queue")
	}
}
