package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/types"
	"github.com/stakevault-io/staking-pool-service/testutil"
)

const (
	testPrefix      = "svx"
	testStakeAsset  = "ustk"
	testRewardAsset = "urwd"
	stakeVaultID    = "vault-stake"
	rewardVaultID   = "vault-reward"
)

type fixture struct {
	t       *testing.T
	service *Service
	db      *testutil.FakeDB
	bank    *testutil.FakeBank
	clock   *testutil.ManualClock

	admin     string
	authority string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// Initialize metrics for testing
	metrics.Init(9998)

	admin, err := testutil.RandomAddress(testPrefix)
	require.NoError(t, err)
	authority, err := testutil.RandomAddress(testPrefix)
	require.NoError(t, err)

	cfg := &config.Config{
		Pool: config.PoolConfig{AddressPrefix: testPrefix},
	}

	f := &fixture{
		t:         t,
		db:        testutil.NewFakeDB(),
		bank:      testutil.NewFakeBank(),
		clock:     testutil.NewManualClock(time.Unix(1_700_000_000, 0)),
		admin:     admin,
		authority: authority,
	}
	f.service = NewService(cfg, f.db, f.bank, nil)
	f.service.WithClock(f.clock.Now)

	return f
}

// initPool registers both vaults at the bank and initializes the pool.
func (f *fixture) initPool(rewardRate uint64) {
	f.t.Helper()

	f.bank.AddAccount(stakeVaultID, f.authority, testStakeAsset, 0)
	f.bank.AddAccount(rewardVaultID, f.authority, testRewardAsset, 1_000_000_000_000)

	terr := f.service.InitializePool(context.Background(), &InitializePoolParams{
		Admin:         f.admin,
		Authority:     f.authority,
		StakeAssetID:  testStakeAsset,
		RewardAssetID: testRewardAsset,
		StakeVault:    stakeVaultID,
		RewardVault:   rewardVaultID,
		RewardRate:    rewardRate,
	})
	require.Nil(f.t, terr)
}

// newStaker creates an identity with a funded stake-asset account and an
// empty reward-asset account at the bank.
func (f *fixture) newStaker(balance uint64) (owner, stakeAcct, rewardAcct string) {
	f.t.Helper()

	owner, err := testutil.RandomAddress(testPrefix)
	require.NoError(f.t, err)

	stakeAcct = "acct-stk-" + owner[len(owner)-6:]
	rewardAcct = "acct-rwd-" + owner[len(owner)-6:]
	f.bank.AddAccount(stakeAcct, owner, testStakeAsset, balance)
	f.bank.AddAccount(rewardAcct, owner, testRewardAsset, 0)

	return owner, stakeAcct, rewardAcct
}

func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
}

func requireErrorCode(t *testing.T, terr *types.Error, code types.ErrorCode) {
	t.Helper()

	require.NotNil(t, terr)
	assert.Equal(t, code, terr.ErrorCode)
}
