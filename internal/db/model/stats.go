package model

const OverallStatsCollection = "overall_stats"

// OverallStatsDocument caches pool-wide aggregates computed by the stats
// poller so reads never scan the position collection.
type OverallStatsDocument struct {
	ID              string `bson:"_id"`              // always "overall_stats"
	TotalStaked     uint64 `bson:"total_staked"`     // sum of stake across positions
	ActivePositions uint64 `bson:"active_positions"` // positions with stake > 0
	LastUpdated     int64  `bson:"last_updated"`     // unix seconds of last poll
}
