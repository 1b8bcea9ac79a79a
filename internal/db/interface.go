package db

import (
	"context"

	"github.com/stakevault-io/staking-pool-service/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	SaveNewPool(ctx context.Context, poolDoc *model.PoolDocument) error
	GetPool(ctx context.Context) (*model.PoolDocument, error)
	UpdatePoolStake(ctx context.Context, totalStaked uint64, lastUpdateTime int64) error
	UpdatePoolRewardRate(ctx context.Context, rewardRate uint64, lastUpdateTime int64) error
	UpdatePoolLastUpdateTime(ctx context.Context, lastUpdateTime int64) error
	ReplacePool(ctx context.Context, poolDoc *model.PoolDocument) error

	SaveNewPosition(ctx context.Context, positionDoc *model.PositionDocument) error
	GetPosition(ctx context.Context, owner string) (*model.PositionDocument, error)
	UpdatePosition(ctx context.Context, owner string, stakeAmount uint64, rewardDebt uint64, lastStakeTime int64) error
	GetActivePositions(ctx context.Context) ([]*model.PositionDocument, error)

	CalculateStakeStatsAggregated(ctx context.Context) (uint64, uint64, error)
	UpsertOverallStats(ctx context.Context, totalStaked uint64, activePositions uint64) error
	GetOverallStats(ctx context.Context) (*model.OverallStatsDocument, error)
}
