package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/db/model"
)

// FakeDB is an in-memory db.DbInterface with the same error contract as the
// mongo-backed implementation: duplicate inserts return *db.DuplicateKeyError,
// reads and updates of absent documents return *db.NotFoundError. Documents
// are stored by value, so callers mutating returned pointers only change the
// store through an explicit write.
type FakeDB struct {
	mu        sync.Mutex
	pool      *model.PoolDocument
	positions map[string]*model.PositionDocument
	stats     *model.OverallStatsDocument

	// Errs fails the next call of the named method with the mapped error;
	// the entry clears once used.
	Errs map[string]error
}

func NewFakeDB() *FakeDB {
	return &FakeDB{
		positions: make(map[string]*model.PositionDocument),
		Errs:      make(map[string]error),
	}
}

func (f *FakeDB) failNext(method string) error {
	if err, ok := f.Errs[method]; ok {
		delete(f.Errs, method)
		return err
	}
	return nil
}

func (f *FakeDB) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.failNext("Ping")
}

func (f *FakeDB) SaveNewPool(_ context.Context, poolDoc *model.PoolDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("SaveNewPool"); err != nil {
		return err
	}
	if f.pool != nil {
		return &db.DuplicateKeyError{
			Key:     poolDoc.ID,
			Message: "pool already initialized",
		}
	}

	copied := *poolDoc
	f.pool = &copied
	return nil
}

func (f *FakeDB) GetPool(_ context.Context) (*model.PoolDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("GetPool"); err != nil {
		return nil, err
	}
	if f.pool == nil {
		return nil, &db.NotFoundError{
			Key:     model.PoolSingletonID,
			Message: "pool not initialized",
		}
	}

	copied := *f.pool
	return &copied, nil
}

func (f *FakeDB) UpdatePoolStake(_ context.Context, totalStaked uint64, lastUpdateTime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("UpdatePoolStake"); err != nil {
		return err
	}
	if f.pool == nil {
		return &db.NotFoundError{Key: model.PoolSingletonID, Message: "pool not initialized"}
	}

	f.pool.TotalStaked = totalStaked
	f.pool.LastUpdateTime = lastUpdateTime
	return nil
}

func (f *FakeDB) UpdatePoolRewardRate(_ context.Context, rewardRate uint64, lastUpdateTime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("UpdatePoolRewardRate"); err != nil {
		return err
	}
	if f.pool == nil {
		return &db.NotFoundError{Key: model.PoolSingletonID, Message: "pool not initialized"}
	}

	f.pool.RewardRate = rewardRate
	f.pool.LastUpdateTime = lastUpdateTime
	return nil
}

func (f *FakeDB) UpdatePoolLastUpdateTime(_ context.Context, lastUpdateTime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("UpdatePoolLastUpdateTime"); err != nil {
		return err
	}
	if f.pool == nil {
		return &db.NotFoundError{Key: model.PoolSingletonID, Message: "pool not initialized"}
	}

	f.pool.LastUpdateTime = lastUpdateTime
	return nil
}

func (f *FakeDB) ReplacePool(_ context.Context, poolDoc *model.PoolDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("ReplacePool"); err != nil {
		return err
	}
	if f.pool == nil {
		return &db.NotFoundError{Key: model.PoolSingletonID, Message: "pool not initialized"}
	}

	copied := *poolDoc
	f.pool = &copied
	return nil
}

func (f *FakeDB) SaveNewPosition(_ context.Context, positionDoc *model.PositionDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("SaveNewPosition"); err != nil {
		return err
	}
	if _, exists := f.positions[positionDoc.Owner]; exists {
		return &db.DuplicateKeyError{
			Key:     positionDoc.Owner,
			Message: "position already exists",
		}
	}

	copied := *positionDoc
	f.positions[positionDoc.Owner] = &copied
	return nil
}

func (f *FakeDB) GetPosition(_ context.Context, owner string) (*model.PositionDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("GetPosition"); err != nil {
		return nil, err
	}
	position, ok := f.positions[owner]
	if !ok {
		return nil, &db.NotFoundError{Key: owner, Message: "no position for owner"}
	}

	copied := *position
	return &copied, nil
}

func (f *FakeDB) UpdatePosition(
	_ context.Context, owner string, stakeAmount uint64, rewardDebt uint64, lastStakeTime int64,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("UpdatePosition"); err != nil {
		return err
	}
	position, ok := f.positions[owner]
	if !ok {
		return &db.NotFoundError{Key: owner, Message: "no position for owner"}
	}

	position.StakeAmount = stakeAmount
	position.RewardDebt = rewardDebt
	position.LastStakeTime = lastStakeTime
	return nil
}

func (f *FakeDB) GetActivePositions(_ context.Context) ([]*model.PositionDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("GetActivePositions"); err != nil {
		return nil, err
	}

	var active []*model.PositionDocument
	for _, position := range f.positions {
		if position.StakeAmount > 0 {
			copied := *position
			active = append(active, &copied)
		}
	}
	// stable order; map iteration would make tests flaky
	sort.Slice(active, func(i, j int) bool {
		return active[i].Owner < active[j].Owner
	})

	return active, nil
}

func (f *FakeDB) CalculateStakeStatsAggregated(_ context.Context) (uint64, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("CalculateStakeStatsAggregated"); err != nil {
		return 0, 0, err
	}

	var totalStaked, activePositions uint64
	for _, position := range f.positions {
		if position.StakeAmount > 0 {
			totalStaked += position.StakeAmount
			activePositions++
		}
	}

	return totalStaked, activePositions, nil
}

func (f *FakeDB) UpsertOverallStats(_ context.Context, totalStaked uint64, activePositions uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("UpsertOverallStats"); err != nil {
		return err
	}

	f.stats = &model.OverallStatsDocument{
		ID:              model.OverallStatsCollection,
		TotalStaked:     totalStaked,
		ActivePositions: activePositions,
		LastUpdated:     time.Now().Unix(),
	}
	return nil
}

func (f *FakeDB) GetOverallStats(_ context.Context) (*model.OverallStatsDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext("GetOverallStats"); err != nil {
		return nil, err
	}
	if f.stats == nil {
		return nil, &db.NotFoundError{Key: model.OverallStatsCollection, Message: "overall stats not computed yet"}
	}

	copied := *f.stats
	return &copied, nil
}
