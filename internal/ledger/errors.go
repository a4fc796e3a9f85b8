package ledger

import (
	"context"
	"errors"
)

var (
	// ErrDocumentNotFoundOrMissingFields means the member, plan or payment
	// is absent, or one of its balance fields is not a number.
	ErrDocumentNotFoundOrMissingFields = errors.New("document not found or missing fields")

	ErrAmountExceedsDue = errors.New("amount exceeds due")

	// ErrTransactionConflict is an optimistic-concurrency abort. The engine
	// retries it; callers only see it once the retry budget is spent.
	ErrTransactionConflict = errors.New("transaction conflict")

	ErrUnknown = errors.New("unknown error")

	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrInvalidInput  = errors.New("invalid input")
)

// IsRetryable reports whether err may succeed on a fresh attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionConflict)
}

func IsClientError(err error) bool {
	return errors.Is(err, ErrAmountExceedsDue) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInput)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFoundOrMissingFields)
}

// classify collapses store failures into the ledger error set so that no
// driver detail reaches callers.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsRetryable(err):
		return ErrTransactionConflict
	case IsNotFound(err):
		return ErrDocumentNotFoundOrMissingFields
	case errors.Is(err, ErrAmountExceedsDue):
		return ErrAmountExceedsDue
	case errors.Is(err, ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, ErrInvalidInput):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return ErrUnknown
	}
}
