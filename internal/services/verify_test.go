package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent ledger", func(t *testing.T) {
		f := newFixture(t)
		f.initPool(10)
		ownerA, acctA, _ := f.newStaker(10_000)
		ownerB, acctB, _ := f.newStaker(10_000)
		require.Nil(t, f.service.Stake(ctx, ownerA, acctA, 1_000))
		require.Nil(t, f.service.Stake(ctx, ownerB, acctB, 2_000))
		f.advance(time.Hour)
		require.Nil(t, f.service.Unstake(ctx, ownerB, acctB, 2_000))

		report, err := f.service.VerifyLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), report.PoolTotalStaked)
		assert.Equal(t, uint64(1_000), report.PositionsTotal)
		assert.Equal(t, uint64(1), report.ActivePositions)
		assert.Equal(t, uint64(1_000), report.StakeVaultBalance)
		assert.True(t, report.Consistent())
	})

	t.Run("pool total diverging from positions", func(t *testing.T) {
		f := newFixture(t)
		f.initPool(10)
		owner, stakeAcct, _ := f.newStaker(10_000)
		require.Nil(t, f.service.Stake(ctx, owner, stakeAcct, 1_000))

		require.NoError(t, f.db.UpdatePoolStake(ctx, 900, f.clock.Now().Unix()))

		report, err := f.service.VerifyLedger(ctx)
		require.NoError(t, err)
		assert.False(t, report.Consistent())
	})

	t.Run("vault short of the staked principal", func(t *testing.T) {
		f := newFixture(t)
		f.initPool(10)
		owner, stakeAcct, _ := f.newStaker(10_000)
		require.Nil(t, f.service.Stake(ctx, owner, stakeAcct, 1_000))

		// drain the vault at the bank without touching the ledger
		f.bank.SetBalance(stakeVaultID, 1)

		report, err := f.service.VerifyLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), report.StakeVaultBalance)
		assert.False(t, report.Consistent())
	})

	t.Run("pool not initialized", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.VerifyLedger(ctx)
		require.Error(t, err)
	})
}
