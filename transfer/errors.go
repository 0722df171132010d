package transfer

import (
	"fmt"
	"math/big"
	"strings"
)

// RetryExhaustedError indicates that an idempotent RPC read exceeded
// its retry budget.
type RetryExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// InsufficientBalanceError indicates the sender balance does not cover
// the transfer value plus the worst-case fee. It is produced both by
// the local pre-flight check and by remote rejection on broadcast.
type InsufficientBalanceError struct {
	Required  *big.Int
	Available *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s wei, available %s wei", e.Required, e.Available)
}

// SubmissionError indicates the node rejected the broadcast for a
// reason other than insufficient funds. It is never retried; the first
// attempt may have landed.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// isInsufficientFunds classifies a node-side rejection. The sentinel
// does not survive the JSON-RPC round trip, so match on the message.
func isInsufficientFunds(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "insufficient funds")
}
