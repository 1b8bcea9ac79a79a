package db

import (
	"context"
	"time"

	"github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveNewPool(ctx context.Context, poolDoc *model.PoolDocument) error {
	return d.run("SaveNewPool", func() error {
		return d.db.SaveNewPool(ctx, poolDoc)
	})
}

func (d *DbWithMetrics) GetPool(ctx context.Context) (result *model.PoolDocument, err error) {
	//nolint:errcheck
	d.run("GetPool", func() error {
		result, err = d.db.GetPool(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdatePoolStake(ctx context.Context, totalStaked uint64, lastUpdateTime int64) error {
	return d.run("UpdatePoolStake", func() error {
		return d.db.UpdatePoolStake(ctx, totalStaked, lastUpdateTime)
	})
}

func (d *DbWithMetrics) UpdatePoolRewardRate(ctx context.Context, rewardRate uint64, lastUpdateTime int64) error {
	return d.run("UpdatePoolRewardRate", func() error {
		return d.db.UpdatePoolRewardRate(ctx, rewardRate, lastUpdateTime)
	})
}

func (d *DbWithMetrics) UpdatePoolLastUpdateTime(ctx context.Context, lastUpdateTime int64) error {
	return d.run("UpdatePoolLastUpdateTime", func() error {
		return d.db.UpdatePoolLastUpdateTime(ctx, lastUpdateTime)
	})
}

func (d *DbWithMetrics) ReplacePool(ctx context.Context, poolDoc *model.PoolDocument) error {
	return d.run("ReplacePool", func() error {
		return d.db.ReplacePool(ctx, poolDoc)
	})
}

func (d *DbWithMetrics) SaveNewPosition(ctx context.Context, positionDoc *model.PositionDocument) error {
	return d.run("SaveNewPosition", func() error {
		return d.db.SaveNewPosition(ctx, positionDoc)
	})
}

func (d *DbWithMetrics) GetPosition(ctx context.Context, owner string) (result *model.PositionDocument, err error) {
	//nolint:errcheck
	d.run("GetPosition", func() error {
		result, err = d.db.GetPosition(ctx, owner)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdatePosition(ctx context.Context, owner string, stakeAmount uint64, rewardDebt uint64, lastStakeTime int64) error {
	return d.run("UpdatePosition", func() error {
		return d.db.UpdatePosition(ctx, owner, stakeAmount, rewardDebt, lastStakeTime)
	})
}

func (d *DbWithMetrics) GetActivePositions(ctx context.Context) (result []*model.PositionDocument, err error) {
	//nolint:errcheck
	d.run("GetActivePositions", func() error {
		result, err = d.db.GetActivePositions(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) CalculateStakeStatsAggregated(ctx context.Context) (totalStaked uint64, activePositions uint64, err error) {
	//nolint:errcheck
	d.run("CalculateStakeStatsAggregated", func() error {
		totalStaked, activePositions, err = d.db.CalculateStakeStatsAggregated(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertOverallStats(ctx context.Context, totalStaked uint64, activePositions uint64) error {
	return d.run("UpsertOverallStats", func() error {
		return d.db.UpsertOverallStats(ctx, totalStaked, activePositions)
	})
}

func (d *DbWithMetrics) GetOverallStats(ctx context.Context) (result *model.OverallStatsDocument, err error) {
	//nolint:errcheck
	d.run("GetOverallStats", func() error {
		result, err = d.db.GetOverallStats(ctx)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
