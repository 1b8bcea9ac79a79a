package model

const PositionCollection = "staker_position"

// PositionDocument tracks one staker's principal and settled-but-unclaimed
// rewards. Created lazily on first stake and kept after full unstake, so a
// drained position stays queryable at zero stake.
type PositionDocument struct {
	Owner         string `bson:"_id"`
	StakeAmount   uint64 `bson:"stake_amount"`
	RewardDebt    uint64 `bson:"reward_debt"`     // rewards settled but not yet claimed
	LastStakeTime int64  `bson:"last_stake_time"` // unix seconds accrual has been settled up to
}
