package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dataweston/Dinewith/pkg/utils"

	square "github.com/square/square-go-sdk"
	squareclient "github.com/square/square-go-sdk/client"
	"github.com/square/square-go-sdk/core"
	"github.com/square/square-go-sdk/option"
)

const squareCompleted = "COMPLETED"

// SquareProcessor authorizes through the Square Payments API with
// autocomplete off, then completes or cancels the payment.
type SquareProcessor struct {
	client     *squareclient.Client
	locationID string
}

// NewSquareProcessor picks the API host from config.Environment:
// "production", "sandbox" (the default) or an explicit base URL.
func NewSquareProcessor(config utils.SquareConfig, httpClient *http.Client) *SquareProcessor {
	opts := []option.RequestOption{
		option.WithToken(config.AccessToken),
		option.WithBaseURL(squareBaseURL(config.Environment)),
		// the gateway owns retries and the breaker
		option.WithMaxAttempts(1),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if config.APIVersion != "" {
		opts = append(opts, option.WithHTTPHeader(http.Header{"Square-Version": []string{config.APIVersion}}))
	}
	return &SquareProcessor{
		client:     squareclient.NewClient(opts...),
		locationID: config.LocationID,
	}
}

func squareBaseURL(environment string) string {
	switch {
	case environment == "production":
		return square.Environments.Production
	case strings.HasPrefix(environment, "http://"), strings.HasPrefix(environment, "https://"):
		return strings.TrimRight(environment, "/")
	default:
		return square.Environments.Sandbox
	}
}

func (p *SquareProcessor) Name() string {
	return ProcessorSquare
}

func (p *SquareProcessor) Authorize(ctx context.Context, req AuthorizeRequest) (*Result, error) {
	currency := square.Currency(req.Amount.Currency)
	create := &square.CreatePaymentRequest{
		SourceID:       req.PaymentToken,
		IdempotencyKey: req.IdempotencyKey,
		AmountMoney: &square.Money{
			Amount:   square.Int64(req.Amount.Amount),
			Currency: &currency,
		},
		Autocomplete: square.Bool(false),
	}
	if p.locationID != "" {
		create.LocationID = square.String(p.locationID)
	}
	if req.ReferenceID != "" {
		create.ReferenceID = square.String(req.ReferenceID)
	}

	resp, err := p.client.Payments.Create(ctx, create)
	if err != nil {
		return nil, squareFailure("create payment", err)
	}
	return squareResult("create payment", resp.Payment, resp.Errors)
}

// Capture completes an approved payment. A refusal on a payment Square
// already completed is reported as ErrAlreadyCaptured.
func (p *SquareProcessor) Capture(ctx context.Context, transactionID string) (*Result, error) {
	resp, err := p.client.Payments.Complete(ctx, &square.CompletePaymentRequest{PaymentID: transactionID})
	if err != nil {
		if status, lookupErr := p.paymentStatus(ctx, transactionID); lookupErr == nil && status == squareCompleted {
			return nil, fmt.Errorf("%w: square payment %s", ErrAlreadyCaptured, transactionID)
		}
		return nil, squareFailure("complete payment", err)
	}
	return squareResult("complete payment", resp.Payment, resp.Errors)
}

func (p *SquareProcessor) Void(ctx context.Context, transactionID string) (*Result, error) {
	resp, err := p.client.Payments.Cancel(ctx, &square.CancelPaymentsRequest{PaymentID: transactionID})
	if err != nil {
		return nil, squareFailure("cancel payment", err)
	}
	return squareResult("cancel payment", resp.Payment, resp.Errors)
}

func (p *SquareProcessor) paymentStatus(ctx context.Context, transactionID string) (string, error) {
	resp, err := p.client.Payments.Get(ctx, &square.GetPaymentsRequest{PaymentID: transactionID})
	if err != nil {
		return "", err
	}
	if resp.Payment == nil || resp.Payment.Status == nil {
		return "", fmt.Errorf("square payment %s has no status", transactionID)
	}
	return *resp.Payment.Status, nil
}

// squareError is the shape of one entry in a Square error body.
type squareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

func (e squareError) String() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

// squareFailure turns an SDK error into a processor error. Card problems
// become ErrDeclined so the gateway does not count them against Square.
func squareFailure(op string, err error) error {
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("square %s: %w", op, err)
	}

	var body struct {
		Errors []squareError `json:"errors"`
	}
	if inner := apiErr.Unwrap(); inner != nil {
		_ = json.Unmarshal([]byte(inner.Error()), &body)
	}
	if len(body.Errors) == 0 {
		return fmt.Errorf("square %s: status %d: %w", op, apiErr.StatusCode, err)
	}

	first := body.Errors[0]
	if first.Category == "PAYMENT_METHOD_ERROR" {
		return fmt.Errorf("%w: square %s", ErrDeclined, first)
	}
	return fmt.Errorf("square %s (status %d): %s", op, apiErr.StatusCode, first)
}

func squareResult(op string, paid *square.Payment, errs []*square.Error) (*Result, error) {
	if len(errs) > 0 {
		raw, _ := json.Marshal(errs[0])
		var first squareError
		_ = json.Unmarshal(raw, &first)
		if first.Category == "PAYMENT_METHOD_ERROR" {
			return nil, fmt.Errorf("%w: square %s", ErrDeclined, first)
		}
		return nil, fmt.Errorf("square %s: %s", op, first)
	}
	if paid == nil || paid.ID == nil {
		return nil, fmt.Errorf("square %s: response has no payment", op)
	}

	result := &Result{
		Processor:     ProcessorSquare,
		TransactionID: *paid.ID,
	}
	if paid.Status != nil {
		result.Status = *paid.Status
	}
	return result, nil
}
