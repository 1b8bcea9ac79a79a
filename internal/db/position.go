package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stakevault-io/staking-pool-service/internal/db/model"
)

func (db *Database) SaveNewPosition(
	ctx context.Context, positionDoc *model.PositionDocument,
) error {
	_, err := db.collection(model.PositionCollection).InsertOne(ctx, positionDoc)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     positionDoc.Owner,
						Message: "position already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetPosition(
	ctx context.Context, owner string,
) (*model.PositionDocument, error) {
	filter := bson.M{"_id": owner}

	res := db.collection(model.PositionCollection).FindOne(ctx, filter)

	var positionDoc model.PositionDocument
	if err := res.Decode(&positionDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     owner,
				Message: "no position for owner",
			}
		}
		return nil, err
	}

	return &positionDoc, nil
}

// UpdatePosition writes a position's settled balances. The same write serves
// forward commits and snapshot restores; owner is immutable.
func (db *Database) UpdatePosition(
	ctx context.Context,
	owner string,
	stakeAmount uint64,
	rewardDebt uint64,
	lastStakeTime int64,
) error {
	filter := bson.M{"_id": owner}
	update := bson.M{
		"$set": bson.M{
			"stake_amount":    stakeAmount,
			"reward_debt":     rewardDebt,
			"last_stake_time": lastStakeTime,
		},
	}

	res, err := db.collection(model.PositionCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     owner,
			Message: "no position for owner when updating",
		}
	}

	return nil
}

// GetActivePositions returns every position currently holding stake. Zero
// stake accrues nothing, so drained positions are skipped by the settle-all
// scan.
func (db *Database) GetActivePositions(ctx context.Context) ([]*model.PositionDocument, error) {
	filter := bson.M{"stake_amount": bson.M{"$gt": 0}}

	cursor, err := db.collection(model.PositionCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var positions []*model.PositionDocument
	if err := cursor.All(ctx, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}
