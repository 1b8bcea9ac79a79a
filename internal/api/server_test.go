package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/services"
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
	server  *httptest.Server
	service *services.Service
	db      *testutil.FakeDB
	bank    *testutil.FakeBank
	clock   *testutil.ManualClock

	admin     string
	authority string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// Initialize metrics for testing
	metrics.Init(9997)

	admin, err := testutil.RandomAddress(testPrefix)
	require.NoError(t, err)
	authority, err := testutil.RandomAddress(testPrefix)
	require.NoError(t, err)

	cfg := &config.Config{
		Pool: config.PoolConfig{AddressPrefix: testPrefix},
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8092,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	f := &fixture{
		t:         t,
		db:        testutil.NewFakeDB(),
		bank:      testutil.NewFakeBank(),
		clock:     testutil.NewManualClock(time.Unix(1_700_000_000, 0)),
		admin:     admin,
		authority: authority,
	}
	f.service = services.NewService(cfg, f.db, f.bank, nil)
	f.service.WithClock(f.clock.Now)

	// exercise the real router and middlewares without binding a port
	apiServer := New(&cfg.Server, f.service)
	f.server = httptest.NewServer(apiServer.httpServer.Handler)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fixture) initPool(rewardRate uint64) {
	f.t.Helper()

	f.bank.AddAccount(stakeVaultID, f.authority, testStakeAsset, 0)
	f.bank.AddAccount(rewardVaultID, f.authority, testRewardAsset, 1_000_000_000_000)

	terr := f.service.InitializePool(context.Background(), &services.InitializePoolParams{
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

// request performs an HTTP call against the test server, marshalling body as
// JSON when present and attaching the caller identity header.
func (f *fixture) request(method, path, accountID string, body any) *http.Response {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	if accountID != "" {
		req.Header.Set(accountIDHeader, accountID)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(f.t, err)
	return resp
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	defer resp.Body.Close()

	var errResp errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	return errResp
}
