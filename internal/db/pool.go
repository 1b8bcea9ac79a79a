package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stakevault-io/staking-pool-service/internal/db/model"
)

// SaveNewPool inserts the pool singleton. A second initialization attempt
// hits the duplicate key on _id and is reported as DuplicateKeyError.
func (db *Database) SaveNewPool(
	ctx context.Context, poolDoc *model.PoolDocument,
) error {
	_, err := db.collection(model.PoolCollection).InsertOne(ctx, poolDoc)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     poolDoc.ID,
						Message: "pool already initialized",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetPool(ctx context.Context) (*model.PoolDocument, error) {
	filter := bson.M{"_id": model.PoolSingletonID}

	res := db.collection(model.PoolCollection).FindOne(ctx, filter)

	var poolDoc model.PoolDocument
	if err := res.Decode(&poolDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.PoolSingletonID,
				Message: "pool not initialized",
			}
		}
		return nil, err
	}

	return &poolDoc, nil
}

// UpdatePoolStake commits a settled stake or unstake: the new running total
// and the settlement timestamp land in one write.
func (db *Database) UpdatePoolStake(
	ctx context.Context, totalStaked uint64, lastUpdateTime int64,
) error {
	return db.updatePool(ctx, bson.M{
		"total_staked":     totalStaked,
		"last_update_time": lastUpdateTime,
	})
}

// UpdatePoolRewardRate swaps the reward rate together with the settlement
// timestamp, so accrual before the write stays priced at the old rate.
func (db *Database) UpdatePoolRewardRate(
	ctx context.Context, rewardRate uint64, lastUpdateTime int64,
) error {
	return db.updatePool(ctx, bson.M{
		"reward_rate":      rewardRate,
		"last_update_time": lastUpdateTime,
	})
}

// UpdatePoolLastUpdateTime stamps a settlement that did not move totals,
// such as a claim.
func (db *Database) UpdatePoolLastUpdateTime(
	ctx context.Context, lastUpdateTime int64,
) error {
	return db.updatePool(ctx, bson.M{
		"last_update_time": lastUpdateTime,
	})
}

// ReplacePool writes the full pool document back, used to restore the
// pre-operation snapshot when a bank transfer fails after the ledger commit.
func (db *Database) ReplacePool(ctx context.Context, poolDoc *model.PoolDocument) error {
	filter := bson.M{"_id": poolDoc.ID}

	res, err := db.collection(model.PoolCollection).ReplaceOne(ctx, filter, poolDoc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     poolDoc.ID,
			Message: "pool not found when restoring snapshot",
		}
	}

	return nil
}

func (db *Database) updatePool(ctx context.Context, updateFields bson.M) error {
	filter := bson.M{"_id": model.PoolSingletonID}
	update := bson.M{"$set": updateFields}

	res, err := db.collection(model.PoolCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     model.PoolSingletonID,
			Message: "pool not initialized",
		}
	}

	return nil
}
