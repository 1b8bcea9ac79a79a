package e2etest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault-io/staking-pool-service/internal/queue"
	"github.com/stakevault-io/staking-pool-service/internal/types"
	"github.com/stakevault-io/staking-pool-service/testutil"
)

type positionPayload struct {
	Owner            string `json:"owner"`
	StakeAmount      uint64 `json:"stake_amount"`
	RewardDebt       uint64 `json:"reward_debt"`
	PendingReward    uint64 `json:"pending_reward"`
	ClaimableRewards uint64 `json:"claimable_rewards"`
}

type poolPayload struct {
	Admin       string `json:"admin"`
	RewardRate  uint64 `json:"reward_rate"`
	TotalStaked uint64 `json:"total_staked"`
}

type statsPayload struct {
	TotalStaked     uint64 `json:"total_staked"`
	ActivePositions uint64 `json:"active_positions"`
}

type claimPayload struct {
	RewardAmount uint64 `json:"reward_amount"`
}

func TestStakingLifecycle(t *testing.T) {
	tm := StartManager(t)
	ctx := t.Context()

	tm.InitPool(t, 10)
	ev := tm.ReadEvent(t)
	require.Equal(t, types.EventPoolInitialized, ev.EventType)

	owner, stakeAcct, rewardAcct := tm.NewStaker(t, 5_000)

	// stake through the HTTP API and check every store it touches
	resp := tm.Request(t, http.MethodPost, "/v1/stake", owner, map[string]any{
		"from_account": stakeAcct,
		"amount":       1_000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	position := decodeData[positionPayload](t, resp)
	assert.Equal(t, owner, position.Owner)
	assert.Equal(t, uint64(1_000), position.StakeAmount)

	storedPosition, err := tm.Db.GetPosition(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), storedPosition.StakeAmount)
	assert.Equal(t, uint64(1_000), tm.Bank.Balance(stakeVaultID))
	assert.Equal(t, uint64(4_000), tm.Bank.Balance(stakeAcct))

	ev = tm.ReadEvent(t)
	require.Equal(t, types.EventStaked, ev.EventType)
	assert.Equal(t, owner, ev.Owner)
	assert.Equal(t, uint64(1_000), ev.Amount)
	assert.Equal(t, uint64(1_000), ev.TotalStaked)

	// a full day at rate 10 accrues 10 per staked unit
	tm.Clock.Advance(24 * time.Hour)

	resp = tm.Request(t, http.MethodPost, "/v1/claim-rewards", owner, map[string]any{
		"to_account": rewardAcct,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	claim := decodeData[claimPayload](t, resp)
	assert.Equal(t, uint64(10_000), claim.RewardAmount)
	assert.Equal(t, uint64(10_000), tm.Bank.Balance(rewardAcct))

	ev = tm.ReadEvent(t)
	require.Equal(t, types.EventRewardsClaimed, ev.EventType)
	assert.Equal(t, uint64(10_000), ev.RewardAmount)

	resp = tm.Request(t, http.MethodPost, "/v1/unstake", owner, map[string]any{
		"to_account": stakeAcct,
		"amount":     400,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	position = decodeData[positionPayload](t, resp)
	assert.Equal(t, uint64(600), position.StakeAmount)
	assert.Equal(t, uint64(4_400), tm.Bank.Balance(stakeAcct))

	ev = tm.ReadEvent(t)
	require.Equal(t, types.EventUnstaked, ev.EventType)
	assert.Equal(t, uint64(400), ev.Amount)
	assert.Equal(t, uint64(600), ev.TotalStaked)

	resp = tm.Request(t, http.MethodGet, "/v1/pool", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pool := decodeData[poolPayload](t, resp)
	assert.Equal(t, uint64(600), pool.TotalStaked)

	// the stats poller picks the new totals up on its next tick
	require.Eventually(t, func() bool {
		resp := tm.Request(t, http.MethodGet, "/v1/stats", "", nil)
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return false
		}
		stats := decodeData[statsPayload](t, resp)
		return stats.TotalStaked == 600 && stats.ActivePositions == 1
	}, eventuallyTimeout, eventuallyInterval, "stats never caught up with the ledger")

	report, err := tm.Service.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestUpdateRewardRateOverHTTP(t *testing.T) {
	tm := StartManager(t)

	tm.InitPool(t, 10)
	ev := tm.ReadEvent(t)
	require.Equal(t, types.EventPoolInitialized, ev.EventType)

	owner, stakeAcct, rewardAcct := tm.NewStaker(t, 2_000)

	resp := tm.Request(t, http.MethodPost, "/v1/stake", owner, map[string]any{
		"from_account": stakeAcct,
		"amount":       1_000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	tm.ReadEvent(t)

	// only the admin may change the rate
	resp = tm.Request(t, http.MethodPost, "/v1/reward-rate", owner, map[string]any{
		"reward_rate": 20,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	tm.Clock.Advance(24 * time.Hour)

	resp = tm.Request(t, http.MethodPost, "/v1/reward-rate", tm.Admin, map[string]any{
		"reward_rate": 20,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ev = tm.ReadEvent(t)
	require.Equal(t, types.EventRewardRateUpdated, ev.EventType)
	assert.Equal(t, uint64(20), ev.RewardRate)

	// one day at the old rate plus half a day at the new one
	tm.Clock.Advance(12 * time.Hour)

	resp = tm.Request(t, http.MethodPost, "/v1/claim-rewards", owner, map[string]any{
		"to_account": rewardAcct,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	claim := decodeData[claimPayload](t, resp)
	assert.Equal(t, uint64(20_000), claim.RewardAmount)
}

func TestQueuePublishRoundTrip(t *testing.T) {
	tm := StartManager(t)
	ctx := t.Context()

	published := make([]queue.StakingEvent, 0, 3)
	for i := range 3 {
		owner, err := testutil.RandomAddress(testAddressPrefix)
		require.NoError(t, err)

		ev := queue.NewStakedEvent(owner, uint64(100*(i+1)), uint64(100*(i+1)), tm.Clock.Now().Unix())
		require.NoError(t, tm.QueueManager.PushStakingEvent(ctx, &ev))
		published = append(published, ev)
	}

	for _, want := range published {
		got := tm.ReadEvent(t)
		assert.Equal(t, want, got)
	}
}
