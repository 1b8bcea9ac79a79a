package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/safemath"
	"github.com/stakevault-io/staking-pool-service/internal/staking"
	"github.com/stakevault-io/staking-pool-service/internal/types"
	"github.com/rs/zerolog/log"
)

// settlePosition folds the reward pending since the position's last settlement
// into its debt at the pool's current rate and stamps the position clock.
// In-memory only; the caller persists.
func settlePosition(pool *model.PoolDocument, position *model.PositionDocument, now int64) error {
	pending, err := staking.PendingReward(position.StakeAmount, pool.RewardRate, now-position.LastStakeTime)
	if err != nil {
		return err
	}

	debt, err := safemath.Add(position.RewardDebt, pending)
	if err != nil {
		return fmt.Errorf("folding pending reward into debt: %w", err)
	}

	position.RewardDebt = debt
	position.LastStakeTime = now
	return nil
}

// getPool loads the pool or maps its absence to a NOT_FOUND service error.
func (s *Service) getPool(ctx context.Context) (*model.PoolDocument, *types.Error) {
	pool, err := s.db.GetPool(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(err)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to get pool: %w", err))
	}
	return pool, nil
}

// mapTransferError translates bank rejections into the service taxonomy.
func mapTransferError(err error) *types.Error {
	switch {
	case errors.Is(err, bankclient.ErrInsufficientFunds):
		return types.NewValidationFailedError(err)
	case errors.Is(err, bankclient.ErrUnauthorizedTransfer):
		return types.NewUnauthorizedError(err)
	case errors.Is(err, bankclient.ErrAccountNotFound):
		return types.NewNotFoundError(err)
	default:
		return types.NewInternalServiceError(err)
	}
}

// restorePool writes a pre-operation pool snapshot back. A failed restore
// leaves the ledger inconsistent until the stats poller flags it.
func (s *Service) restorePool(ctx context.Context, snapshot *model.PoolDocument) {
	if err := s.db.ReplacePool(ctx, snapshot); err != nil {
		metrics.IncLedgerDriftDetected()
		log.Ctx(ctx).Error().Err(err).
			Msg("compensating pool write failed, ledger out of sync until next poll")
	}
}

// restorePosition writes a pre-operation position snapshot back.
func (s *Service) restorePosition(ctx context.Context, snapshot *model.PositionDocument) {
	err := s.db.UpdatePosition(ctx, snapshot.Owner, snapshot.StakeAmount, snapshot.RewardDebt, snapshot.LastStakeTime)
	if err != nil {
		metrics.IncLedgerDriftDetected()
		log.Ctx(ctx).Error().Err(err).
			Str("owner", snapshot.Owner).
			Msg("compensating position write failed, ledger out of sync until next poll")
	}
}
