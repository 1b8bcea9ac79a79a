package bankclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/clients/client"
	"github.com/stakevault-io/staking-pool-service/internal/config"
)

const (
	transfersEndpoint = "/v1/transfers"
	accountsEndpoint  = "/v1/accounts"
)

type Client struct {
	httpClient *http.Client
	cfg        *config.BankConfig
}

func NewClient(cfg *config.BankConfig) *Client {
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *Client) GetBaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

func (c *Client) Transfer(ctx context.Context, req *TransferRequest) error {
	if req.IdempotencyKey == "" {
		return fmt.Errorf("empty idempotency key provided")
	}

	type transferResponse struct {
		TransferID string `json:"transfer_id"`
	}

	callForTransfer := func() (*transferResponse, error) {
		opts := &client.HttpClientOptions{
			Path:         transfersEndpoint,
			TemplatePath: transfersEndpoint,
		}

		resp, err := client.SendRequest[TransferRequest, transferResponse](ctx, c, http.MethodPost, opts, req)
		if err != nil {
			return nil, mapBankError(err)
		}

		return resp, nil
	}

	resp, err := clientCallWithRetry(ctx, callForTransfer, c.cfg)
	if err != nil {
		return fmt.Errorf("transfer %s -> %s failed: %w", req.FromAccount, req.ToAccount, err)
	}

	log.Ctx(ctx).Debug().
		Str("transfer_id", resp.TransferID).
		Str("from_account", req.FromAccount).
		Str("to_account", req.ToAccount).
		Uint64("amount", req.Amount).
		Msg("bank transfer accepted")

	return nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("empty account id provided")
	}

	type empty struct{}

	callForAccount := func() (*Account, error) {
		opts := &client.HttpClientOptions{
			Path:         accountsEndpoint + "/" + accountID,
			TemplatePath: accountsEndpoint,
		}

		resp, err := client.SendRequest[empty, Account](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return nil, mapBankError(err)
		}

		return resp, nil
	}

	account, err := clientCallWithRetry(ctx, callForAccount, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %q: %w", accountID, err)
	}

	return account, nil
}

// mapBankError converts the bank's error payload into a sentinel so that
// callers can errors.Is on the rejection kind.
func mapBankError(err error) error {
	var respErr *client.ErrorResponse
	if !errors.As(err, &respErr) {
		return err
	}

	var body errorResponse
	if unmarshalErr := json.Unmarshal(respErr.Body, &body); unmarshalErr != nil {
		body = errorResponse{}
	}

	switch body.ErrorCode {
	case "INSUFFICIENT_FUNDS":
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, body.Message)
	case "UNAUTHORIZED_TRANSFER":
		return fmt.Errorf("%w: %s", ErrUnauthorizedTransfer, body.Message)
	}

	if respErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w (status %d)", ErrAccountNotFound, respErr.StatusCode)
	}

	return err
}

// isTransient reports whether a failed call is worth repeating. Definitive
// bank rejections are final; everything else (transport errors, timeouts,
// rate limits, 5xx) may clear up on a later attempt.
func isTransient(err error) bool {
	if errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrUnauthorizedTransfer) ||
		errors.Is(err, ErrAccountNotFound) {
		return false
	}

	var respErr *client.ErrorResponse
	if errors.As(err, &respErr) {
		return respErr.StatusCode >= http.StatusInternalServerError
	}

	return true
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.BankConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("transient bank error, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
