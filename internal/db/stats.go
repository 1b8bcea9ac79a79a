package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault-io/staking-pool-service/internal/db/model"
)

// UpsertOverallStats updates or inserts the cached pool-wide aggregates
func (db *Database) UpsertOverallStats(
	ctx context.Context,
	totalStaked uint64,
	activePositions uint64,
) error {
	filter := bson.M{"_id": "overall_stats"}
	update := bson.M{
		"$set": bson.M{
			"total_staked":     totalStaked,
			"active_positions": activePositions,
			"last_updated":     time.Now().Unix(),
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.OverallStatsCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) GetOverallStats(ctx context.Context) (*model.OverallStatsDocument, error) {
	filter := bson.M{"_id": "overall_stats"}

	res := db.collection(model.OverallStatsCollection).FindOne(ctx, filter)

	var statsDoc model.OverallStatsDocument
	if err := res.Decode(&statsDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     "overall_stats",
				Message: "overall stats not computed yet",
			}
		}
		return nil, err
	}

	return &statsDoc, nil
}
