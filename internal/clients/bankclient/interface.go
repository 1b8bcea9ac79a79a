package bankclient

import (
	"context"
)

type BankClient interface {
	Transfer(ctx context.Context, req *TransferRequest) error
	GetAccount(ctx context.Context, accountID string) (*Account, error)
}
