package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/queue"
	"github.com/stakevault-io/staking-pool-service/internal/safemath"
	"github.com/stakevault-io/staking-pool-service/internal/staking"
	"github.com/stakevault-io/staking-pool-service/internal/types"
)

// ClaimRewards settles the owner's position and pays the entire settled debt
// from the reward vault to toAccount, returning the amount paid. The debt is
// zeroed in the ledger before the transfer is requested, so a concurrent or
// repeated claim can never pay twice; a failed transfer restores it.
func (s *Service) ClaimRewards(ctx context.Context, owner, toAccount string) (uint64, *types.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, terr := s.getPool(ctx)
	if terr != nil {
		return 0, terr
	}

	if terr := s.checkFundingAccount(ctx, toAccount, pool.RewardAssetID, owner); terr != nil {
		return 0, terr
	}

	position, err := s.db.GetPosition(ctx, owner)
	if err != nil {
		if db.IsNotFoundError(err) {
			return 0, types.NewNotFoundError(err)
		}
		return 0, types.NewInternalServiceError(fmt.Errorf("failed to get position: %w", err))
	}

	now := s.now()
	prevPool := *pool
	prevPosition := *position

	if err := settlePosition(pool, position, now); err != nil {
		return 0, types.NewArithmeticError(err)
	}

	total := position.RewardDebt
	if total == 0 {
		// nothing was settled, so nothing has to be persisted either
		return 0, types.NewNoRewardsToClaimError(
			fmt.Errorf("no rewards accrued for %s", owner))
	}

	position.RewardDebt = 0

	if err := s.db.UpdatePosition(ctx, owner, position.StakeAmount, position.RewardDebt, position.LastStakeTime); err != nil {
		return 0, types.NewInternalServiceError(fmt.Errorf("failed to update position: %w", err))
	}
	if err := s.db.UpdatePoolLastUpdateTime(ctx, now); err != nil {
		s.restorePosition(ctx, &prevPosition)
		return 0, types.NewInternalServiceError(fmt.Errorf("failed to update pool: %w", err))
	}

	transfer := &bankclient.TransferRequest{
		FromAccount:    pool.RewardVault,
		ToAccount:      toAccount,
		AssetID:        pool.RewardAssetID,
		Amount:         total,
		Authority:      pool.Authority,
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.bank.Transfer(ctx, transfer); err != nil {
		s.restorePool(ctx, &prevPool)
		s.restorePosition(ctx, &prevPosition)
		return 0, mapTransferError(err)
	}

	s.emitEvent(ctx, queue.NewRewardsClaimedEvent(owner, total, now))

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Uint64("reward_amount", total).
		Msg("rewards claimed")

	return total, nil
}

// UpdateRewardRate swaps the pool's reward rate. Every active position is
// settled at the outgoing rate first, so intervals already served keep their
// price and only future accrual uses the new rate.
func (s *Service) UpdateRewardRate(ctx context.Context, caller string, newRate uint64) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, terr := s.getPool(ctx)
	if terr != nil {
		return terr
	}

	if caller != pool.Admin {
		return types.NewUnauthorizedError(
			errors.New("only the pool admin may change the reward rate"))
	}

	now := s.now()

	positions, err := s.db.GetActivePositions(ctx)
	if err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to list active positions: %w", err))
	}

	// settle everything in memory first so an arithmetic failure aborts
	// before any write
	for _, position := range positions {
		if err := settlePosition(pool, position, now); err != nil {
			return types.NewArithmeticError(
				fmt.Errorf("settling position %s: %w", position.Owner, err))
		}
	}

	// a failure mid-loop leaves some positions settled at the old rate,
	// which is observably neutral: the rate swap below has not happened
	for _, position := range positions {
		if err := s.db.UpdatePosition(ctx, position.Owner, position.StakeAmount, position.RewardDebt, position.LastStakeTime); err != nil {
			return types.NewInternalServiceError(
				fmt.Errorf("failed to settle position %s: %w", position.Owner, err))
		}
	}

	oldRate := pool.RewardRate
	if err := s.db.UpdatePoolRewardRate(ctx, newRate, now); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to update reward rate: %w", err))
	}

	s.emitEvent(ctx, queue.NewRewardRateUpdatedEvent(newRate, pool.TotalStaked, now))

	log.Ctx(ctx).Info().
		Uint64("old_rate", oldRate).
		Uint64("new_rate", newRate).
		Int("settled_positions", len(positions)).
		Msg("reward rate updated")

	return nil
}

// PositionDetails is an owner's ledger position plus the reward pending at
// the current clock, computed read-only.
type PositionDetails struct {
	Owner            string
	StakeAmount      uint64
	RewardDebt       uint64
	LastStakeTime    int64
	PendingReward    uint64
	ClaimableRewards uint64
}

func (s *Service) GetPosition(ctx context.Context, owner string) (*PositionDetails, *types.Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool, terr := s.getPool(ctx)
	if terr != nil {
		return nil, terr
	}

	position, err := s.db.GetPosition(ctx, owner)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(err)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to get position: %w", err))
	}

	now := s.now()
	pending, err := staking.PendingReward(position.StakeAmount, pool.RewardRate, now-position.LastStakeTime)
	if err != nil {
		return nil, types.NewArithmeticError(err)
	}
	claimable, err := safemath.Add(position.RewardDebt, pending)
	if err != nil {
		return nil, types.NewArithmeticError(err)
	}

	return &PositionDetails{
		Owner:            position.Owner,
		StakeAmount:      position.StakeAmount,
		RewardDebt:       position.RewardDebt,
		LastStakeTime:    position.LastStakeTime,
		PendingReward:    pending,
		ClaimableRewards: claimable,
	}, nil
}
