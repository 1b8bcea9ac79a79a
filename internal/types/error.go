package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	InternalServiceError    ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError         ErrorCode = "VALIDATION_ERROR"
	NotFound                ErrorCode = "NOT_FOUND"
	Conflict                ErrorCode = "CONFLICT"
	ArithmeticError         ErrorCode = "ARITHMETIC_ERROR"
	InsufficientStakeAmount ErrorCode = "INSUFFICIENT_STAKE_AMOUNT"
	Unauthorized            ErrorCode = "UNAUTHORIZED"
	NoRewardsToClaim        ErrorCode = "NO_REWARDS_TO_CLAIM"
)

// Error wraps a low-level error with the HTTP status and stable error code
// returned to API clients. Service methods return *Error so handlers never
// have to guess at a status.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.ErrorCode.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{StatusCode: statusCode, ErrorCode: errorCode, Err: err}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, errors.New(msg))
}

func NewInternalServiceError(err error) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, ErrorCode: InternalServiceError, Err: err}
}

func NewValidationFailedError(err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, ErrorCode: ValidationError, Err: err}
}

func NewNotFoundError(err error) *Error {
	return &Error{StatusCode: http.StatusNotFound, ErrorCode: NotFound, Err: err}
}

// NewArithmeticError marks an operation aborted because a balance or reward
// computation would overflow uint64. No ledger state is modified.
func NewArithmeticError(err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, ErrorCode: ArithmeticError, Err: err}
}

func NewInsufficientStakeAmountError(err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, ErrorCode: InsufficientStakeAmount, Err: err}
}

func NewUnauthorizedError(err error) *Error {
	return &Error{StatusCode: http.StatusForbidden, ErrorCode: Unauthorized, Err: err}
}

func NewNoRewardsToClaimError(err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, ErrorCode: NoRewardsToClaim, Err: err}
}
