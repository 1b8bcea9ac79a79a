package services

import (
	"context"
	"fmt"
)

// LedgerReport is the outcome of a full ledger consistency check.
type LedgerReport struct {
	PoolTotalStaked   uint64
	PositionsTotal    uint64
	ActivePositions   uint64
	StakeVaultBalance uint64
}

// Consistent reports whether the pool total matches the aggregated positions
// and the stake vault covers the staked principal.
func (r *LedgerReport) Consistent() bool {
	return r.PoolTotalStaked == r.PositionsTotal &&
		r.StakeVaultBalance >= r.PoolTotalStaked
}

// VerifyLedger cross-checks the pool document, the aggregated positions and
// the bank-side vault balance. Used by the verify-ledger CLI command.
func (s *Service) VerifyLedger(ctx context.Context) (*LedgerReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool, err := s.db.GetPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}

	positionsTotal, activePositions, err := s.db.CalculateStakeStatsAggregated(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate positions: %w", err)
	}

	vault, err := s.bank.GetAccount(ctx, pool.StakeVault)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake vault account: %w", err)
	}

	return &LedgerReport{
		PoolTotalStaked:   pool.TotalStaked,
		PositionsTotal:    positionsTotal,
		ActivePositions:   activePositions,
		StakeVaultBalance: vault.Balance,
	}, nil
}
