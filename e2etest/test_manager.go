package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/stakevault-io/staking-pool-service/e2etest/container"
	"github.com/stakevault-io/staking-pool-service/internal/api"
	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	dbmodel "github.com/stakevault-io/staking-pool-service/internal/db/model"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/queue"
	"github.com/stakevault-io/staking-pool-service/internal/services"
	"github.com/stakevault-io/staking-pool-service/testutil"
)

const (
	testAddressPrefix = "svx"
	stakeAssetID      = "ustk"
	rewardAssetID     = "urwd"
	stakeVaultID      = "vault-stake"
	rewardVaultID     = "vault-reward"

	apiHost = "127.0.0.1"
	apiPort = 8093

	eventuallyTimeout  = 40 * time.Second
	eventuallyInterval = 1 * time.Second
)

// TestManager wires the full service against real backing stores: a mongo
// and a rabbitmq container, an HTTP stub standing in for the bank, and the
// API server listening on a real port. Only the clock is synthetic.
type TestManager struct {
	Config       *config.Config
	Db           *db.Database
	Service      *services.Service
	Bank         *testutil.FakeBank
	Clock        *testutil.ManualClock
	QueueManager *queue.QueueManager
	EventChan    <-chan amqp.Delivery

	Admin     string
	Authority string
}

// StartManager boots the whole stack the way start-server does and tears it
// down through t.Cleanup in reverse order.
func StartManager(t *testing.T) *TestManager {
	t.Helper()
	ctx := t.Context()

	manager, err := container.NewManager()
	require.NoError(t, err)
	t.Cleanup(manager.ClearResources)

	dbCfg, err := manager.RunMongo()
	require.NoError(t, err)
	queueCfg, err := manager.RunRabbitmq("staking_pool_events_e2e")
	require.NoError(t, err)

	bank := testutil.NewFakeBank()
	bankServer := httptest.NewServer(newBankStub(bank))
	t.Cleanup(bankServer.Close)

	cfg := &config.Config{
		Db: *dbCfg,
		Bank: config.BankConfig{
			BaseURL:       bankServer.URL,
			Timeout:       5 * time.Second,
			MaxRetryTimes: 3,
			RetryInterval: 100 * time.Millisecond,
		},
		Pool: config.PoolConfig{AddressPrefix: testAddressPrefix},
		Server: config.ServerConfig{
			Host:         apiHost,
			Port:         apiPort,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Metrics: config.MetricsConfig{Host: apiHost, Port: 9996},
		Poller:  config.PollerConfig{StatsPollingInterval: time.Second},
		Queue:   queueCfg,
	}
	require.NoError(t, cfg.Validate())

	metrics.Init(cfg.Metrics.GetMetricsPort())

	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)
	// the container keeps refusing connections for a beat after it starts
	require.Eventually(t, func() bool {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		return dbClient.Ping(pingCtx) == nil
	}, eventuallyTimeout, eventuallyInterval, "mongo did not come up")
	require.NoError(t, dbmodel.Setup(ctx, &cfg.Db))

	var qm *queue.QueueManager
	require.Eventually(t, func() bool {
		qm, err = queue.NewQueueManager(cfg.Queue)
		return err == nil
	}, eventuallyTimeout, eventuallyInterval, "rabbitmq did not come up")
	t.Cleanup(qm.Shutdown)

	eventChan, closeConsumer, err := consumeQueue(cfg.Queue)
	require.NoError(t, err)
	t.Cleanup(closeConsumer)

	admin, err := testutil.RandomAddress(testAddressPrefix)
	require.NoError(t, err)
	authority, err := testutil.RandomAddress(testAddressPrefix)
	require.NoError(t, err)

	var bankCl bankclient.BankClient = bankclient.NewClient(&cfg.Bank)
	bankCl = bankclient.NewBankClientWithMetrics(bankCl)

	clock := testutil.NewManualClock(time.Unix(1_700_000_000, 0))
	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), bankCl, qm)
	service.WithClock(clock.Now)

	serverCtx, stopServer := context.WithCancel(ctx)
	service.StartStatsPoller(serverCtx)

	apiServer := api.New(&cfg.Server, service)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(serverCtx)
	}()
	t.Cleanup(func() {
		stopServer()
		if err := <-serverDone; err != nil {
			t.Errorf("api server exited with an error: %v", err)
		}
	})

	tm := &TestManager{
		Config:       cfg,
		Db:           dbClient,
		Service:      service,
		Bank:         bank,
		Clock:        clock,
		QueueManager: qm,
		EventChan:    eventChan,
		Admin:        admin,
		Authority:    authority,
	}

	require.Eventually(t, func() bool {
		resp, err := http.Get(tm.baseURL() + "/healthcheck")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, eventuallyTimeout, eventuallyInterval, "API server did not come up")

	return tm
}

func (tm *TestManager) baseURL() string {
	return "http://" + tm.Config.Server.ListenAddr()
}

// InitPool registers both vaults at the bank and creates the pool document.
func (tm *TestManager) InitPool(t *testing.T, rewardRate uint64) {
	t.Helper()

	tm.Bank.AddAccount(stakeVaultID, tm.Authority, stakeAssetID, 0)
	tm.Bank.AddAccount(rewardVaultID, tm.Authority, rewardAssetID, 1_000_000_000_000)

	terr := tm.Service.InitializePool(t.Context(), &services.InitializePoolParams{
		Admin:         tm.Admin,
		Authority:     tm.Authority,
		StakeAssetID:  stakeAssetID,
		RewardAssetID: rewardAssetID,
		StakeVault:    stakeVaultID,
		RewardVault:   rewardVaultID,
		RewardRate:    rewardRate,
	})
	require.Nil(t, terr)
}

// NewStaker creates an identity with a funded stake-asset account and an
// empty reward-asset account at the bank.
func (tm *TestManager) NewStaker(t *testing.T, balance uint64) (owner, stakeAcct, rewardAcct string) {
	t.Helper()

	owner, err := testutil.RandomAddress(testAddressPrefix)
	require.NoError(t, err)

	stakeAcct = "acct-stk-" + owner[len(owner)-6:]
	rewardAcct = "acct-rwd-" + owner[len(owner)-6:]
	tm.Bank.AddAccount(stakeAcct, owner, stakeAssetID, balance)
	tm.Bank.AddAccount(rewardAcct, owner, rewardAssetID, 0)

	return owner, stakeAcct, rewardAcct
}

// Request performs an HTTP call against the running API server. An empty
// accountID leaves the identity header off.
func (tm *TestManager) Request(t *testing.T, method, path, accountID string, body any) *http.Response {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req, err := http.NewRequestWithContext(t.Context(), method, tm.baseURL()+path, &reqBody)
	require.NoError(t, err)
	if accountID != "" {
		req.Header.Set("X-Account-Id", accountID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// ReadEvent blocks until the broker delivers the next staking event.
func (tm *TestManager) ReadEvent(t *testing.T) queue.StakingEvent {
	t.Helper()

	select {
	case delivery := <-tm.EventChan:
		var ev queue.StakingEvent
		require.NoError(t, json.Unmarshal(delivery.Body, &ev))
		return ev
	case <-time.After(eventuallyTimeout):
		t.Fatal("timed out waiting for a staking event")
		return queue.StakingEvent{}
	}
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

// consumeQueue opens a dedicated consumer connection so assertions on
// delivered messages don't share a channel with the publisher.
func consumeQueue(cfg *config.QueueConfig) (<-chan amqp.Delivery, func(), error) {
	amqpURI := fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url)
	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect consumer: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	deliveries, err := channel.Consume(
		cfg.QueueName,
		"",    // consumer tag
		true,  // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	closeConsumer := func() {
		channel.Close()
		conn.Close()
	}

	return deliveries, closeConsumer, nil
}

// newBankStub exposes a FakeBank over the bank's HTTP wire format so the
// real bankclient transport is exercised end to end.
func newBankStub(bank *testutil.FakeBank) http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/transfers", func(w http.ResponseWriter, req *http.Request) {
		var transfer bankclient.TransferRequest
		if err := json.NewDecoder(req.Body).Decode(&transfer); err != nil {
			writeBankJSON(w, http.StatusBadRequest, map[string]string{
				"error_code": "MALFORMED_REQUEST",
				"message":    err.Error(),
			})
			return
		}

		if err := bank.Transfer(req.Context(), &transfer); err != nil {
			writeBankError(w, err)
			return
		}

		writeBankJSON(w, http.StatusOK, map[string]string{"transfer_id": uuid.NewString()})
	})

	r.Get("/v1/accounts/{id}", func(w http.ResponseWriter, req *http.Request) {
		account, err := bank.GetAccount(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeBankError(w, err)
			return
		}

		writeBankJSON(w, http.StatusOK, account)
	})

	return r
}

func writeBankError(w http.ResponseWriter, err error) {
	code, status := "INTERNAL", http.StatusInternalServerError
	switch {
	case errors.Is(err, bankclient.ErrInsufficientFunds):
		code, status = "INSUFFICIENT_FUNDS", http.StatusUnprocessableEntity
	case errors.Is(err, bankclient.ErrUnauthorizedTransfer):
		code, status = "UNAUTHORIZED_TRANSFER", http.StatusForbidden
	case errors.Is(err, bankclient.ErrAccountNotFound):
		code, status = "ACCOUNT_NOT_FOUND", http.StatusNotFound
	}

	writeBankJSON(w, status, map[string]string{"error_code": code, "message": err.Error()})
}

func writeBankJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
