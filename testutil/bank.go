package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
)

// FakeBank is an in-memory bankclient.BankClient. Transfers move balances
// between registered accounts under the same rules the real bank applies:
// both accounts must exist, the authority must own the debited account, and
// the debited account must cover the amount.
type FakeBank struct {
	mu        sync.Mutex
	accounts  map[string]*bankclient.Account
	transfers []bankclient.TransferRequest

	// TransferErr fails the next Transfer call and clears itself.
	TransferErr error
}

func NewFakeBank() *FakeBank {
	return &FakeBank{
		accounts: make(map[string]*bankclient.Account),
	}
}

func (b *FakeBank) AddAccount(id, owner, assetID string, balance uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.accounts[id] = &bankclient.Account{
		ID:      id,
		Owner:   owner,
		AssetID: assetID,
		Balance: balance,
	}
}

func (b *FakeBank) Transfer(_ context.Context, req *bankclient.TransferRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.TransferErr != nil {
		err := b.TransferErr
		b.TransferErr = nil
		return err
	}

	from, ok := b.accounts[req.FromAccount]
	if !ok {
		return fmt.Errorf("%w: %s", bankclient.ErrAccountNotFound, req.FromAccount)
	}
	to, ok := b.accounts[req.ToAccount]
	if !ok {
		return fmt.Errorf("%w: %s", bankclient.ErrAccountNotFound, req.ToAccount)
	}
	if req.Authority != from.Owner {
		return fmt.Errorf("%w: %s cannot debit %s", bankclient.ErrUnauthorizedTransfer, req.Authority, req.FromAccount)
	}
	if from.Balance < req.Amount {
		return fmt.Errorf("%w: account %s holds %d, requested %d",
			bankclient.ErrInsufficientFunds, req.FromAccount, from.Balance, req.Amount)
	}

	from.Balance -= req.Amount
	to.Balance += req.Amount
	b.transfers = append(b.transfers, *req)

	return nil
}

func (b *FakeBank) GetAccount(_ context.Context, accountID string) (*bankclient.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bankclient.ErrAccountNotFound, accountID)
	}

	copied := *account
	return &copied, nil
}

// Balance looks a registered account's balance up, 0 for unknown accounts.
func (b *FakeBank) Balance(accountID string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[accountID]
	if !ok {
		return 0
	}
	return account.Balance
}

// SetBalance overwrites a registered account's balance, bypassing transfers.
// Lets tests fake out-of-band movements such as a drained vault.
func (b *FakeBank) SetBalance(accountID string, balance uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if account, ok := b.accounts[accountID]; ok {
		account.Balance = balance
	}
}

// Transfers returns every transfer executed so far, in order.
func (b *FakeBank) Transfers() []bankclient.TransferRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]bankclient.TransferRequest, len(b.transfers))
	copy(out, b.transfers)
	return out
}
