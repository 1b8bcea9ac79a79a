package bankclient

import "errors"

// Definitive rejections from the bank. Callers map these onto their own
// error taxonomy; the retry loop never repeats them.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrUnauthorizedTransfer = errors.New("transfer not authorized")
	ErrAccountNotFound      = errors.New("account not found")
)

// TransferRequest moves Amount of AssetID from FromAccount to ToAccount.
// Authority must be entitled to debit FromAccount. IdempotencyKey makes a
// retried submission land at most once.
type TransferRequest struct {
	FromAccount    string `json:"from_account"`
	ToAccount      string `json:"to_account"`
	AssetID        string `json:"asset_id"`
	Amount         uint64 `json:"amount"`
	Authority      string `json:"authority"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Account is the bank's view of a single asset account.
type Account struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	AssetID string `json:"asset_id"`
	Balance uint64 `json:"balance"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}
