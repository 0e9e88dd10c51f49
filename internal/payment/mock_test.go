package payment

import "context"

type mockProcessor struct {
	name          string
	AuthorizeFunc func(ctx context.Context, req AuthorizeRequest) (*Result, error)
	CaptureFunc   func(ctx context.Context, transactionID string) (*Result, error)
	VoidFunc      func(ctx context.Context, transactionID string) (*Result, error)

	authorizeCalls []AuthorizeRequest
	captureCalls   []string
}

func (m *mockProcessor) Name() string { return m.name }

func (m *mockProcessor) Authorize(ctx context.Context, req AuthorizeRequest) (*Result, error) {
	m.authorizeCalls = append(m.authorizeCalls, req)
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, req)
	}
	return &Result{Processor: m.name, TransactionID: m.name + "-tx", Status: "AUTHORIZED"}, nil
}

func (m *mockProcessor) Capture(ctx context.Context, transactionID string) (*Result, error) {
	m.captureCalls = append(m.captureCalls, transactionID)
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, transactionID)
	}
	return &Result{Processor: m.name, TransactionID: transactionID, Status: "CAPTURED"}, nil
}

func (m *mockProcessor) Void(ctx context.Context, transactionID string) (*Result, error) {
	if m.VoidFunc != nil {
		return m.VoidFunc(ctx, transactionID)
	}
	return &Result{Processor: m.name, TransactionID: transactionID, Status: "VOIDED"}, nil
}
