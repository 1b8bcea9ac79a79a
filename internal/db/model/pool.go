package model

const PoolCollection = "staking_pool"

// PoolSingletonID keys the one pool document; a deployment runs exactly one
// pool.
const PoolSingletonID = "staking_pool"

type PoolDocument struct {
	ID             string `bson:"_id"`              // always PoolSingletonID
	Admin          string `bson:"admin"`            // only identity allowed to change the rate
	Authority      string `bson:"authority"`        // owner of both vault accounts at the bank
	RewardRate     uint64 `bson:"reward_rate"`      // reward units per unit staked per day
	TotalStaked    uint64 `bson:"total_staked"`     // sum of all positions' stake_amount
	LastUpdateTime int64  `bson:"last_update_time"` // unix seconds of the last settlement
	StakeAssetID   string `bson:"stake_asset_id"`
	RewardAssetID  string `bson:"reward_asset_id"`
	StakeVault     string `bson:"stake_vault"`  // bank account holding staked principal
	RewardVault    string `bson:"reward_vault"` // bank account rewards are paid from
}
