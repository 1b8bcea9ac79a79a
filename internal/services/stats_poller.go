package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/types"
	"github.com/stakevault-io/staking-pool-service/internal/utils/poller"
)

// StartStatsPoller starts the stats polling service
func (s *Service) StartStatsPoller(ctx context.Context) {
	statsPoller := poller.NewPoller(
		s.cfg.Poller.StatsPollingInterval,
		metrics.RecordPollerDuration("stats", s.calculateAndUpdateStats),
	)
	go statsPoller.Start(ctx)
}

// GetStats returns the pool-wide aggregates cached by the stats poller.
func (s *Service) GetStats(ctx context.Context) (*model.OverallStatsDocument, *types.Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, err := s.db.GetOverallStats(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(err)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to get overall stats: %w", err))
	}

	return stats, nil
}

// calculateAndUpdateStats aggregates the position collection, caches the
// totals and cross-checks them against the pool ledger.
func (s *Service) calculateAndUpdateStats(ctx context.Context) error {
	log := log.Ctx(ctx)

	// shared lock so the check never races a half-committed operation
	s.mu.RLock()
	defer s.mu.RUnlock()

	startTime := time.Now()
	totalStaked, activePositions, err := s.db.CalculateStakeStatsAggregated(ctx)
	aggregationDuration := time.Since(startTime)

	log.Debug().
		Dur("aggregation_duration_ms", aggregationDuration).
		Msg("Stats aggregation completed")

	if err != nil {
		return fmt.Errorf("failed to calculate stake stats: %w", err)
	}

	if err := s.db.UpsertOverallStats(ctx, totalStaked, activePositions); err != nil {
		return fmt.Errorf("failed to upsert overall stats: %w", err)
	}

	pool, err := s.db.GetPool(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			log.Debug().Msg("Pool not initialized yet - skipping consistency check")
			return nil
		}
		return fmt.Errorf("failed to get pool: %w", err)
	}

	if pool.TotalStaked != totalStaked {
		metrics.IncLedgerDriftDetected()
		log.Error().
			Uint64("pool_total_staked", pool.TotalStaked).
			Uint64("aggregated_total", totalStaked).
			Msg("Pool total does not match the sum of positions")
	}

	metrics.RecordPoolTotalStaked(pool.TotalStaked)
	metrics.RecordActivePositions(activePositions)

	log.Info().
		Uint64("total_staked", totalStaked).
		Uint64("active_positions", activePositions).
		Msg("Updated overall stats")

	return nil
}
