package bankclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
)

func testConfig(baseURL string) *config.BankConfig {
	return &config.BankConfig{
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		MaxRetryTimes: 3,
		RetryInterval: 10 * time.Millisecond, // Short interval for testing
	}
}

func TestTransfer(t *testing.T) {
	metrics.Init(9999)

	var received TransferRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/transfers", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"transfer_id":"t-123"}`))
	}))
	defer server.Close()

	cl := NewClient(testConfig(server.URL))
	err := cl.Transfer(context.Background(), &TransferRequest{
		FromAccount:    "acct-staker",
		ToAccount:      "acct-stake-vault",
		AssetID:        "asset-stk",
		Amount:         1000,
		Authority:      "acct-staker",
		IdempotencyKey: "d5c3f2f1-8a44-4f5e-9a57-2f4f8b6f4a11",
	})

	require.NoError(t, err)
	assert.Equal(t, "acct-staker", received.FromAccount)
	assert.Equal(t, "acct-stake-vault", received.ToAccount)
	assert.Equal(t, uint64(1000), received.Amount)
	assert.Equal(t, "d5c3f2f1-8a44-4f5e-9a57-2f4f8b6f4a11", received.IdempotencyKey)
}

func TestTransfer_EmptyIdempotencyKey(t *testing.T) {
	metrics.Init(9999)

	cl := NewClient(testConfig("http://bank.invalid"))
	err := cl.Transfer(context.Background(), &TransferRequest{
		FromAccount: "acct-staker",
		ToAccount:   "acct-stake-vault",
		Amount:      1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty idempotency key")
}

func TestTransfer_DefinitiveRejectionsAreNotRetried(t *testing.T) {
	metrics.Init(9999)

	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{
			name:       "insufficient funds",
			statusCode: http.StatusBadRequest,
			body:       `{"error_code":"INSUFFICIENT_FUNDS","message":"balance 10 below requested 1000"}`,
			wantErr:    ErrInsufficientFunds,
		},
		{
			name:       "unauthorized transfer",
			statusCode: http.StatusForbidden,
			body:       `{"error_code":"UNAUTHORIZED_TRANSFER","message":"authority cannot debit account"}`,
			wantErr:    ErrUnauthorizedTransfer,
		},
		{
			name:       "unknown account",
			statusCode: http.StatusNotFound,
			body:       `{"message":"no such account"}`,
			wantErr:    ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestCount := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requestCount++
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			cl := NewClient(testConfig(server.URL))
			err := cl.Transfer(context.Background(), &TransferRequest{
				FromAccount:    "acct-staker",
				ToAccount:      "acct-stake-vault",
				Amount:         1000,
				IdempotencyKey: "d5c3f2f1-8a44-4f5e-9a57-2f4f8b6f4a11",
			})

			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, requestCount, "definitive rejection must not be retried")
		})
	}
}

func TestTransfer_RetriesTransientFailures(t *testing.T) {
	metrics.Init(9999)

	// Return 500 for the first 2 requests, then 200
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error_code":"INTERNAL","message":"try again"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"transfer_id":"t-456"}`))
	}))
	defer server.Close()

	cl := NewClient(testConfig(server.URL))
	err := cl.Transfer(context.Background(), &TransferRequest{
		FromAccount:    "acct-staker",
		ToAccount:      "acct-stake-vault",
		Amount:         1000,
		IdempotencyKey: "d5c3f2f1-8a44-4f5e-9a57-2f4f8b6f4a11",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, requestCount, "Should have made 3 requests (2 failures + 1 success)")
}

func TestTransfer_ExceedsMaxRetries(t *testing.T) {
	metrics.Init(9999)

	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error_code":"UNAVAILABLE","message":"maintenance"}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetryTimes = 2

	cl := NewClient(cfg)
	err := cl.Transfer(context.Background(), &TransferRequest{
		FromAccount:    "acct-staker",
		ToAccount:      "acct-stake-vault",
		Amount:         1000,
		IdempotencyKey: "d5c3f2f1-8a44-4f5e-9a57-2f4f8b6f4a11",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfer acct-staker -> acct-stake-vault failed")
	assert.Equal(t, 2, requestCount, "Should have made 2 requests before giving up")
}

func TestGetAccount(t *testing.T) {
	metrics.Init(9999)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/accounts/acct-stake-vault", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"id": "acct-stake-vault",
			"owner": "svx1pooladmin",
			"asset_id": "asset-stk",
			"balance": 250000
		}`))
	}))
	defer server.Close()

	cl := NewClient(testConfig(server.URL))
	account, err := cl.GetAccount(context.Background(), "acct-stake-vault")

	require.NoError(t, err)
	assert.Equal(t, "acct-stake-vault", account.ID)
	assert.Equal(t, "svx1pooladmin", account.Owner)
	assert.Equal(t, "asset-stk", account.AssetID)
	assert.Equal(t, uint64(250000), account.Balance)
}

func TestGetAccount_NotFound(t *testing.T) {
	metrics.Init(9999)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no such account"}`))
	}))
	defer server.Close()

	cl := NewClient(testConfig(server.URL))
	_, err := cl.GetAccount(context.Background(), "acct-missing")

	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetAccount_EmptyID(t *testing.T) {
	metrics.Init(9999)

	cl := NewClient(testConfig("http://bank.invalid"))
	_, err := cl.GetAccount(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty account id provided")
}
