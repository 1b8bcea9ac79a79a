package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/queue"
	"github.com/stakevault-io/staking-pool-service/internal/types"
	"github.com/stakevault-io/staking-pool-service/pkg"
)

type InitializePoolParams struct {
	Admin         string
	Authority     string
	StakeAssetID  string
	RewardAssetID string
	StakeVault    string
	RewardVault   string
	RewardRate    uint64
}

// InitializePool creates the singleton pool document. The vaults must already
// exist at the bank, hold the matching assets and belong to the authority.
func (s *Service) InitializePool(ctx context.Context, params *InitializePoolParams) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := s.cfg.Pool.AddressPrefix
	if err := pkg.ValidateAddress(params.Admin, prefix); err != nil {
		return types.NewValidationFailedError(fmt.Errorf("invalid admin address: %w", err))
	}
	if err := pkg.ValidateAddress(params.Authority, prefix); err != nil {
		return types.NewValidationFailedError(fmt.Errorf("invalid authority address: %w", err))
	}
	if params.StakeAssetID == "" || params.RewardAssetID == "" {
		return types.NewValidationFailedError(errors.New("stake and reward asset ids must be set"))
	}
	if params.StakeVault == params.RewardVault {
		return types.NewValidationFailedError(errors.New("stake and reward vaults must be distinct accounts"))
	}

	if err := s.checkVault(ctx, params.StakeVault, params.StakeAssetID, params.Authority); err != nil {
		return err
	}
	if err := s.checkVault(ctx, params.RewardVault, params.RewardAssetID, params.Authority); err != nil {
		return err
	}

	now := s.now()
	poolDoc := &model.PoolDocument{
		ID:             model.PoolSingletonID,
		Admin:          params.Admin,
		Authority:      params.Authority,
		RewardRate:     params.RewardRate,
		TotalStaked:    0,
		LastUpdateTime: now,
		StakeAssetID:   params.StakeAssetID,
		RewardAssetID:  params.RewardAssetID,
		StakeVault:     params.StakeVault,
		RewardVault:    params.RewardVault,
	}

	if err := s.db.SaveNewPool(ctx, poolDoc); err != nil {
		if db.IsDuplicateKeyError(err) {
			return types.NewErrorWithMsg(http.StatusConflict, types.Conflict, "pool already initialized")
		}
		return types.NewInternalServiceError(fmt.Errorf("failed to save pool: %w", err))
	}

	s.emitEvent(ctx, queue.NewPoolInitializedEvent(params.Admin, params.RewardRate, now))

	log.Ctx(ctx).Info().
		Str("admin", params.Admin).
		Str("authority", params.Authority).
		Uint64("reward_rate", params.RewardRate).
		Msg("staking pool initialized")

	return nil
}

// checkVault verifies a vault account exists at the bank, holds the expected
// asset and is owned by the pool authority.
func (s *Service) checkVault(ctx context.Context, vaultID, assetID, authority string) *types.Error {
	account, err := s.bank.GetAccount(ctx, vaultID)
	if err != nil {
		if errors.Is(err, bankclient.ErrAccountNotFound) {
			return types.NewValidationFailedError(fmt.Errorf("vault account %s does not exist", vaultID))
		}
		return types.NewInternalServiceError(fmt.Errorf("failed to verify vault account %s: %w", vaultID, err))
	}

	if account.AssetID != assetID {
		return types.NewValidationFailedError(
			fmt.Errorf("vault %s holds asset %s, expected %s", vaultID, account.AssetID, assetID))
	}
	if account.Owner != authority {
		return types.NewValidationFailedError(
			fmt.Errorf("vault %s is owned by %s, not the pool authority", vaultID, account.Owner))
	}

	return nil
}

func (s *Service) GetPool(ctx context.Context) (*model.PoolDocument, *types.Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPool(ctx)
}
