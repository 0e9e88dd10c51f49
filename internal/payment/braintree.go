package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/braintree-go/braintree-go"
)

// BraintreeProcessor authorizes through the Braintree SDK. Sales are
// created without settlement and submitted on capture.
type BraintreeProcessor struct {
	bt *braintree.Braintree
}

// NewBraintreeProcessor picks the gateway from config.Environment:
// "production", "sandbox" (the default) or an explicit base URL.
func NewBraintreeProcessor(config utils.BraintreeConfig, httpClient *http.Client) *BraintreeProcessor {
	env := braintreeEnvironment(config.Environment)
	if httpClient == nil {
		return &BraintreeProcessor{
			bt: braintree.New(env, config.MerchantID, config.PublicKey, config.PrivateKey),
		}
	}
	return &BraintreeProcessor{
		bt: braintree.NewWithHttpClient(env, config.MerchantID, config.PublicKey, config.PrivateKey, httpClient),
	}
}

func braintreeEnvironment(name string) braintree.Environment {
	switch {
	case name == "production":
		return braintree.Production
	case strings.HasPrefix(name, "http://"), strings.HasPrefix(name, "https://"):
		return braintree.NewEnvironment(strings.TrimRight(name, "/"))
	default:
		return braintree.Sandbox
	}
}

func (p *BraintreeProcessor) Name() string {
	return ProcessorBraintree
}

// Braintree has no native idempotency key; the key rides as the order id so
// a duplicate can be found in the control panel.
func (p *BraintreeProcessor) Authorize(ctx context.Context, req AuthorizeRequest) (*Result, error) {
	tx, err := p.bt.Transaction().Create(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(req.Amount.Amount, 2),
		PaymentMethodNonce: req.PaymentToken,
		OrderId:            req.IdempotencyKey,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: false,
		},
	})
	if err != nil {
		var btErr *braintree.BraintreeError
		if errors.As(err, &btErr) {
			return nil, fmt.Errorf("%w: braintree %s", ErrDeclined, btErr.Error())
		}
		return nil, fmt.Errorf("braintree authorize: %w", err)
	}
	return braintreeResult(tx), nil
}

// Capture submits the sale for settlement. A refusal on a sale that is
// already settling or settled is reported as ErrAlreadyCaptured.
func (p *BraintreeProcessor) Capture(ctx context.Context, transactionID string) (*Result, error) {
	tx, err := p.bt.Transaction().SubmitForSettlement(ctx, transactionID)
	if err != nil {
		var btErr *braintree.BraintreeError
		if errors.As(err, &btErr) {
			if found, findErr := p.bt.Transaction().Find(ctx, transactionID); findErr == nil && braintreeCaptured(found.Status) {
				return nil, fmt.Errorf("%w: braintree transaction %s is %s", ErrAlreadyCaptured, transactionID, found.Status)
			}
		}
		return nil, fmt.Errorf("braintree capture %s: %w", transactionID, err)
	}
	return braintreeResult(tx), nil
}

func (p *BraintreeProcessor) Void(ctx context.Context, transactionID string) (*Result, error) {
	tx, err := p.bt.Transaction().Void(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("braintree void %s: %w", transactionID, err)
	}
	return braintreeResult(tx), nil
}

func braintreeCaptured(status braintree.TransactionStatus) bool {
	switch status {
	case braintree.TransactionStatusSubmittedForSettlement,
		braintree.TransactionStatusSettling,
		braintree.TransactionStatusSettlementPending,
		braintree.TransactionStatusSettled,
		braintree.TransactionStatusSettlementConfirmed:
		return true
	}
	return false
}

func braintreeResult(tx *braintree.Transaction) *Result {
	return &Result{
		Processor:     ProcessorBraintree,
		TransactionID: tx.Id,
		Status:        string(tx.Status),
	}
}
