package model

import (
	"errors"
	"fmt"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrTokenNotFound is returned by the market data client when a mint has
// no listing.
var ErrTokenNotFound = errors.New("token not found")

// ValidationError reports a malformed or infeasible allocation request.
// It is raised before any amount is drawn and before any I/O.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid allocation request: " + e.Reason
}

// InsufficientBalanceError means the treasury balance cannot cover the
// plan total plus fees. Fatal to the request, never retried.
type InsufficientBalanceError struct {
	RequiredLamports  uint64
	AvailableLamports uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: need %d lamports, have %d", e.RequiredLamports, e.AvailableLamports)
}

// TransientRpcError wraps a read that still failed after the retry
// budget was exhausted.
type TransientRpcError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransientRpcError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *TransientRpcError) Unwrap() error { return e.Err }

// SubmissionError means a transaction send failed. Sends are never
// retried: an ambiguous failure after resend risks a duplicate transfer.
type SubmissionError struct {
	Batch int
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("batch %d: transaction submission failed: %v", e.Batch, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError means a transaction was sent but never
// observed confirmed within the polling window. The outcome is
// ambiguous: the transfer may have landed on chain. Surfaced distinctly
// from SubmissionError so the operator can verify before retrying.
type ConfirmationTimeoutError struct {
	Batch     int
	Signature string
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("batch %d: confirmation timeout for transaction %s", e.Batch, e.Signature)
}
