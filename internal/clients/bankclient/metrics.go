package bankclient

import (
	"context"
	"time"

	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
)

type bankClientWithMetrics struct {
	bank BankClient
}

func NewBankClientWithMetrics(bank BankClient) *bankClientWithMetrics {
	return &bankClientWithMetrics{bank: bank}
}

func (b *bankClientWithMetrics) Transfer(ctx context.Context, req *TransferRequest) error {
	// this is just auxiliary type in order to call runBankClientMethodWithMetrics which always returns 2 values
	type zero struct{}
	_, err := runBankClientMethodWithMetrics[zero]("Transfer", func() (zero, error) {
		return zero{}, b.bank.Transfer(ctx, req)
	})

	return err
}

func (b *bankClientWithMetrics) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	return runBankClientMethodWithMetrics("GetAccount", func() (*Account, error) {
		return b.bank.GetAccount(ctx, accountID)
	})
}

func runBankClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordBankClientLatency(duration, method, err != nil)
	return v, err
}
