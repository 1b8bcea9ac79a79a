package types

type EventTypes string

type EventCategory string

func (e EventTypes) String() string {
	return string(e)
}

const (
	EventPoolInitialized   EventTypes = "stakevault.pool.v1.EventPoolInitialized"
	EventStaked            EventTypes = "stakevault.pool.v1.EventStaked"
	EventUnstaked          EventTypes = "stakevault.pool.v1.EventUnstaked"
	EventRewardsClaimed    EventTypes = "stakevault.pool.v1.EventRewardsClaimed"
	EventRewardRateUpdated EventTypes = "stakevault.pool.v1.EventRewardRateUpdated"
)
