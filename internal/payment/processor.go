package payment

import (
	"context"
	"errors"
	"fmt"
)

// Processor names as stored in the fee ledger.
const (
	ProcessorSquare    = "square"
	ProcessorBraintree = "braintree"
)

var (
	ErrUnknownProcessor = errors.New("unknown payment processor")
	ErrDeclined         = errors.New("payment declined")
	// ErrAlreadyCaptured means a capture was refused because the processor
	// already settled the authorization.
	ErrAlreadyCaptured = errors.New("payment already captured")
)

// Money is an amount in minor units of Currency.
type Money struct {
	Amount   int64
	Currency string
}

// Major renders m as a decimal string in major units, e.g. 10000 -> "100.00".
func (m Money) Major() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

type AuthorizeRequest struct {
	Amount         Money
	PaymentToken   string
	IdempotencyKey string
	// ReferenceID ties the charge to a booking on the processor side.
	ReferenceID string
}

type Result struct {
	Processor     string
	TransactionID string
	Status        string
}

// Processor authorizes, captures and voids card payments. Authorize must
// hold funds without settling them.
type Processor interface {
	Name() string
	Authorize(ctx context.Context, req AuthorizeRequest) (*Result, error)
	Capture(ctx context.Context, transactionID string) (*Result, error)
	Void(ctx context.Context, transactionID string) (*Result, error)
}
