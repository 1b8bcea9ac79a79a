//go:build integration

package db_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/db/model"
)

func TestPosition(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("get unknown owner", func(t *testing.T) {
		position, err := testDB.GetPosition(ctx, gofakeit.UUID())
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, position)
	})

	t.Run("save and get", func(t *testing.T) {
		position := createPosition(t)
		err := testDB.SaveNewPosition(ctx, position)
		require.NoError(t, err)

		actualPosition, err := testDB.GetPosition(ctx, position.Owner)
		require.NoError(t, err)
		assert.Equal(t, position, actualPosition)
	})

	t.Run("insert duplicate owner", func(t *testing.T) {
		position := createPosition(t)
		err := testDB.SaveNewPosition(ctx, position)
		require.NoError(t, err)

		err = testDB.SaveNewPosition(ctx, position)
		assert.True(t, db.IsDuplicateKeyError(err))
	})

	t.Run("update", func(t *testing.T) {
		position := createPosition(t)
		require.NoError(t, testDB.SaveNewPosition(ctx, position))

		now := time.Now().Unix()
		err := testDB.UpdatePosition(ctx, position.Owner, 5_000, 120, now)
		require.NoError(t, err)

		actualPosition, err := testDB.GetPosition(ctx, position.Owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(5_000), actualPosition.StakeAmount)
		assert.Equal(t, uint64(120), actualPosition.RewardDebt)
		assert.Equal(t, now, actualPosition.LastStakeTime)
	})

	t.Run("update unknown owner", func(t *testing.T) {
		err := testDB.UpdatePosition(ctx, gofakeit.UUID(), 1, 1, time.Now().Unix())
		assert.True(t, db.IsNotFoundError(err))
	})

	t.Run("active positions skip drained ones", func(t *testing.T) {
		resetDatabase(t)

		staked1 := createPosition(t)
		staked2 := createPosition(t)
		drained := createPosition(t)
		drained.StakeAmount = 0
		for _, position := range []*model.PositionDocument{staked1, staked2, drained} {
			require.NoError(t, testDB.SaveNewPosition(ctx, position))
		}

		positions, err := testDB.GetActivePositions(ctx)
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.Contains(t, positions, staked1)
		assert.Contains(t, positions, staked2)
	})
}

func TestCalculateStakeStatsAggregated(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("empty collection", func(t *testing.T) {
		totalStaked, activePositions, err := testDB.CalculateStakeStatsAggregated(ctx)
		require.NoError(t, err)
		assert.Zero(t, totalStaked)
		assert.Zero(t, activePositions)
	})

	t.Run("sums stake and counts active positions", func(t *testing.T) {
		var expectedTotal uint64
		for range 3 {
			position := createPosition(t)
			require.NoError(t, testDB.SaveNewPosition(ctx, position))
			expectedTotal += position.StakeAmount
		}
		// drained positions contribute to neither figure
		drained := createPosition(t)
		drained.StakeAmount = 0
		require.NoError(t, testDB.SaveNewPosition(ctx, drained))

		totalStaked, activePositions, err := testDB.CalculateStakeStatsAggregated(ctx)
		require.NoError(t, err)
		assert.Equal(t, expectedTotal, totalStaked)
		assert.Equal(t, uint64(3), activePositions)
	})
}

func createPosition(t *testing.T) *model.PositionDocument {
	var position model.PositionDocument
	err := gofakeit.Struct(&position)
	require.NoError(t, err)

	// the driver encodes uint64 as BSON int64, keep amounts inside that range
	position.Owner = gofakeit.UUID()
	position.StakeAmount = uint64(gofakeit.Uint32()) + 1
	position.RewardDebt = uint64(gofakeit.Uint32())
	position.LastStakeTime = time.Now().Unix()

	return &position
}
