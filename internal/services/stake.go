package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/queue"
	"github.com/stakevault-io/staking-pool-service/internal/safemath"
	"github.com/stakevault-io/staking-pool-service/internal/types"
	"github.com/stakevault-io/staking-pool-service/pkg"
)

// Stake settles the owner's position, adds amount to it and to the pool
// total, and then pulls the tokens from fromAccount into the stake vault.
// The ledger is committed before the transfer; if the transfer fails, the
// pre-operation snapshots are written back so the operation has no effect.
func (s *Service) Stake(ctx context.Context, owner, fromAccount string, amount uint64) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == 0 {
		return types.NewValidationFailedError(errors.New("stake amount must be positive"))
	}
	if err := pkg.ValidateAddress(owner, s.cfg.Pool.AddressPrefix); err != nil {
		return types.NewValidationFailedError(fmt.Errorf("invalid owner address: %w", err))
	}

	pool, terr := s.getPool(ctx)
	if terr != nil {
		return terr
	}

	if terr := s.checkFundingAccount(ctx, fromAccount, pool.StakeAssetID, owner); terr != nil {
		return terr
	}

	now := s.now()

	position, err := s.db.GetPosition(ctx, owner)
	if err != nil {
		if !db.IsNotFoundError(err) {
			return types.NewInternalServiceError(fmt.Errorf("failed to get position: %w", err))
		}
		// first stake creates the position
		position = &model.PositionDocument{
			Owner:         owner,
			LastStakeTime: now,
		}
		if err := s.db.SaveNewPosition(ctx, position); err != nil {
			return types.NewInternalServiceError(fmt.Errorf("failed to create position: %w", err))
		}
	}

	// snapshots for the compensating writes
	prevPool := *pool
	prevPosition := *position

	if err := settlePosition(pool, position, now); err != nil {
		return types.NewArithmeticError(err)
	}

	newStake, err := safemath.Add(position.StakeAmount, amount)
	if err != nil {
		return types.NewArithmeticError(err)
	}
	newTotal, err := safemath.Add(pool.TotalStaked, amount)
	if err != nil {
		return types.NewArithmeticError(err)
	}
	position.StakeAmount = newStake
	pool.TotalStaked = newTotal

	if err := s.db.UpdatePosition(ctx, owner, position.StakeAmount, position.RewardDebt, position.LastStakeTime); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to update position: %w", err))
	}
	if err := s.db.UpdatePoolStake(ctx, pool.TotalStaked, now); err != nil {
		s.restorePosition(ctx, &prevPosition)
		return types.NewInternalServiceError(fmt.Errorf("failed to update pool: %w", err))
	}

	transfer := &bankclient.TransferRequest{
		FromAccount:    fromAccount,
		ToAccount:      pool.StakeVault,
		AssetID:        pool.StakeAssetID,
		Amount:         amount,
		Authority:      owner,
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.bank.Transfer(ctx, transfer); err != nil {
		// undo in reverse commit order
		s.restorePool(ctx, &prevPool)
		s.restorePosition(ctx, &prevPosition)
		return mapTransferError(err)
	}

	s.emitEvent(ctx, queue.NewStakedEvent(owner, amount, pool.TotalStaked, now))
	metrics.RecordPoolTotalStaked(pool.TotalStaked)

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Uint64("amount", amount).
		Uint64("position_stake", position.StakeAmount).
		Uint64("total_staked", pool.TotalStaked).
		Msg("stake committed")

	return nil
}

// Unstake settles the owner's position, removes amount from it and from the
// pool total, and pays the principal from the stake vault to toAccount. Same
// commit-then-transfer ordering and rollback as Stake.
func (s *Service) Unstake(ctx context.Context, owner, toAccount string, amount uint64) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == 0 {
		return types.NewValidationFailedError(errors.New("unstake amount must be positive"))
	}

	pool, terr := s.getPool(ctx)
	if terr != nil {
		return terr
	}

	if terr := s.checkFundingAccount(ctx, toAccount, pool.StakeAssetID, owner); terr != nil {
		return terr
	}

	position, err := s.db.GetPosition(ctx, owner)
	if err != nil {
		if db.IsNotFoundError(err) {
			return types.NewNotFoundError(err)
		}
		return types.NewInternalServiceError(fmt.Errorf("failed to get position: %w", err))
	}

	if amount > position.StakeAmount {
		return types.NewInsufficientStakeAmountError(
			fmt.Errorf("unstake of %d exceeds staked amount %d", amount, position.StakeAmount))
	}

	now := s.now()
	prevPool := *pool
	prevPosition := *position

	if err := settlePosition(pool, position, now); err != nil {
		return types.NewArithmeticError(err)
	}

	newStake, err := safemath.Sub(position.StakeAmount, amount)
	if err != nil {
		return types.NewArithmeticError(err)
	}
	newTotal, err := safemath.Sub(pool.TotalStaked, amount)
	if err != nil {
		return types.NewArithmeticError(err)
	}
	position.StakeAmount = newStake
	pool.TotalStaked = newTotal

	if err := s.db.UpdatePosition(ctx, owner, position.StakeAmount, position.RewardDebt, position.LastStakeTime); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to update position: %w", err))
	}
	if err := s.db.UpdatePoolStake(ctx, pool.TotalStaked, now); err != nil {
		s.restorePosition(ctx, &prevPosition)
		return types.NewInternalServiceError(fmt.Errorf("failed to update pool: %w", err))
	}

	transfer := &bankclient.TransferRequest{
		FromAccount:    pool.StakeVault,
		ToAccount:      toAccount,
		AssetID:        pool.StakeAssetID,
		Amount:         amount,
		Authority:      pool.Authority,
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.bank.Transfer(ctx, transfer); err != nil {
		s.restorePool(ctx, &prevPool)
		s.restorePosition(ctx, &prevPosition)
		return mapTransferError(err)
	}

	s.emitEvent(ctx, queue.NewUnstakedEvent(owner, amount, pool.TotalStaked, now))
	metrics.RecordPoolTotalStaked(pool.TotalStaked)

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Uint64("amount", amount).
		Uint64("position_stake", position.StakeAmount).
		Uint64("total_staked", pool.TotalStaked).
		Msg("unstake committed")

	return nil
}

// checkFundingAccount verifies a staker-side account exists, holds the
// expected asset and belongs to the caller.
func (s *Service) checkFundingAccount(ctx context.Context, accountID, assetID, owner string) *types.Error {
	account, err := s.bank.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, bankclient.ErrAccountNotFound) {
			return types.NewNotFoundError(fmt.Errorf("account %s does not exist", accountID))
		}
		return types.NewInternalServiceError(fmt.Errorf("failed to verify account %s: %w", accountID, err))
	}

	if account.AssetID != assetID {
		return types.NewValidationFailedError(
			fmt.Errorf("account %s holds asset %s, expected %s", accountID, account.AssetID, assetID))
	}
	if account.Owner != owner {
		return types.NewUnauthorizedError(
			fmt.Errorf("account %s is not owned by %s", accountID, owner))
	}

	return nil
}
