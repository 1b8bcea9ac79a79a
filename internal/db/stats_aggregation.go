package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/stakevault-io/staking-pool-service/internal/db/model"
)

// CalculateStakeStatsAggregated sums stake across positions with a MongoDB
// aggregation pipeline. This is much more efficient than loading all
// positions into memory, and gives the stats poller an independent figure to
// check pool.total_staked against.
func (db *Database) CalculateStakeStatsAggregated(ctx context.Context) (uint64, uint64, error) {
	collection := db.collection(model.PositionCollection)

	pipeline := bson.A{
		// Only positions currently holding stake
		bson.M{
			"$match": bson.M{
				"stake_amount": bson.M{"$gt": 0},
			},
		},
		bson.M{
			"$group": bson.M{
				"_id":              nil,
				"total_staked":     bson.M{"$sum": "$stake_amount"},
				"active_positions": bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var totalStaked uint64
	var activePositions uint64

	if cursor.Next(ctx) {
		var result struct {
			TotalStaked     uint64 `bson:"total_staked"`
			ActivePositions uint64 `bson:"active_positions"`
		}
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, err
		}
		totalStaked = result.TotalStaked
		activePositions = result.ActivePositions
	}

	return totalStaked, activePositions, nil
}
