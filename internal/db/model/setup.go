package model

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakevault-io/staking-pool-service/internal/config"
)

const setupTimeout = 10 * time.Second

// Setup creates the ledger collections and their indexes. It is safe to run
// on every startup.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect from db after setup")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	database := client.Database(cfg.DbName)

	for _, name := range []string{PoolCollection, PositionCollection} {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
	}

	// The settle-all scan during a rate update only touches positions that
	// hold stake.
	positionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "stake_amount", Value: 1}}},
	}
	if _, err := database.Collection(PositionCollection).Indexes().CreateMany(ctx, positionIndexes); err != nil {
		return err
	}

	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, name string) error {
	err := database.CreateCollection(ctx, name)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
			log.Ctx(ctx).Debug().Str("collection", name).Msg("collection already exists")
			return nil
		}
		return err
	}

	log.Ctx(ctx).Info().Str("collection", name).Msg("collection created")
	return nil
}
