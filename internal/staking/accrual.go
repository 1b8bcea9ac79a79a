package staking

import (
	"github.com/stakevault-io/staking-pool-service/internal/safemath"
)

// SecondsPerDay is the reward accrual unit: rates are expressed as reward
// units per unit staked per day, and partial days accrue pro rata by the
// second.
const SecondsPerDay = 86400

// PendingReward computes the reward earned by stakeAmount over elapsedSeconds
// at rewardRate. Full days accrue stake*rate each; the trailing partial day
// accrues floor(stake*rate*remainder/86400).
//
// Every step is overflow-checked: a stake*rate product past uint64 fails even
// when the final figure would fit after the division.
func PendingReward(stakeAmount, rewardRate uint64, elapsedSeconds int64) (uint64, error) {
	if elapsedSeconds <= 0 || stakeAmount == 0 {
		return 0, nil
	}

	days := uint64(elapsedSeconds / SecondsPerDay)
	remainder := uint64(elapsedSeconds % SecondsPerDay)

	perDay, err := safemath.Mul(stakeAmount, rewardRate)
	if err != nil {
		return 0, err
	}

	reward, err := safemath.Mul(perDay, days)
	if err != nil {
		return 0, err
	}

	if remainder > 0 {
		scaled, err := safemath.Mul(perDay, remainder)
		if err != nil {
			return 0, err
		}
		partial, err := safemath.Div(scaled, SecondsPerDay)
		if err != nil {
			return 0, err
		}
		reward, err = safemath.Add(reward, partial)
		if err != nil {
			return 0, err
		}
	}

	return reward, nil
}
