package billing

import "errors"

// Error definitions for the billing module
var (
	ErrNotAProvider  = errors.New("submodule is not a billing provider")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrDeclined      = errors.New("charge declined")
	ErrNoLedger      = errors.New("billing ledger not configured")
)
