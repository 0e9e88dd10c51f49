package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// ErrAllProcessorsFailed is returned when every processor refused or failed
// an authorization.
var ErrAllProcessorsFailed = errors.New("all payment processors failed")

type breakerProcessor struct {
	Processor
	cb *gobreaker.CircuitBreaker
}

// Gateway fronts an ordered list of processors. Authorization fails over
// down the list with the same idempotency key. Capture and void only go
// to the processor that holds the authorization.
type Gateway struct {
	processors []*breakerProcessor
	timeout    time.Duration
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewGateway(log *zap.Logger, timeout time.Duration, processors ...Processor) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log = log.With(zap.String("component", "payment_gateway"))

	g := &Gateway{
		timeout: timeout,
		tracer:  otel.Tracer("dinewith/payment"),
		log:     log,
	}
	for _, p := range processors {
		if p == nil {
			continue
		}
		g.processors = append(g.processors, &breakerProcessor{
			Processor: p,
			cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    p.Name(),
				Timeout: 30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= 5
				},
				// Declines are the card's fault, not the processor's.
				IsSuccessful: func(err error) bool {
					return err == nil || errors.Is(err, ErrDeclined) || errors.Is(err, ErrAlreadyCaptured)
				},
				OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
					log.Warn("Circuit breaker state changed",
						zap.String("processor", name),
						zap.String("from", from.String()),
						zap.String("to", to.String()),
					)
				},
			}),
		})
	}
	return g
}

// Processors lists the configured processor names in failover order.
func (g *Gateway) Processors() []string {
	names := make([]string, len(g.processors))
	for i, p := range g.processors {
		names[i] = p.Name()
	}
	return names
}

// Authorize holds req.Amount on the first processor that accepts it. A
// preferred processor, when configured, is tried first.
func (g *Gateway) Authorize(ctx context.Context, req AuthorizeRequest, preferred string) (*Result, error) {
	if len(g.processors) == 0 {
		return nil, fmt.Errorf("%w: none configured", ErrAllProcessorsFailed)
	}

	var errs []error
	for _, p := range g.ordered(preferred) {
		result, err := g.call(ctx, p, "authorize", func(ctx context.Context) (*Result, error) {
			return p.Authorize(ctx, req)
		})
		if err == nil {
			return result, nil
		}

		g.log.Warn("Authorization failed, trying next processor",
			zap.Error(err),
			zap.String("processor", p.Name()),
			zap.String("idempotency_key", req.IdempotencyKey),
		)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return nil, fmt.Errorf("%w: %w", ErrAllProcessorsFailed, errors.Join(errs...))
}

func (g *Gateway) Capture(ctx context.Context, processor, transactionID string) (*Result, error) {
	p, err := g.find(processor)
	if err != nil {
		return nil, err
	}
	return g.call(ctx, p, "capture", func(ctx context.Context) (*Result, error) {
		return p.Capture(ctx, transactionID)
	})
}

func (g *Gateway) Void(ctx context.Context, processor, transactionID string) (*Result, error) {
	p, err := g.find(processor)
	if err != nil {
		return nil, err
	}
	return g.call(ctx, p, "void", func(ctx context.Context) (*Result, error) {
		return p.Void(ctx, transactionID)
	})
}

func (g *Gateway) ordered(preferred string) []*breakerProcessor {
	if preferred == "" {
		return g.processors
	}
	out := make([]*breakerProcessor, 0, len(g.processors))
	for _, p := range g.processors {
		if p.Name() == preferred {
			out = append(out, p)
		}
	}
	for _, p := range g.processors {
		if p.Name() != preferred {
			out = append(out, p)
		}
	}
	return out
}

func (g *Gateway) find(name string) (*breakerProcessor, error) {
	for _, p := range g.processors {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
}

// call runs fn under the per-call timeout and the processor's breaker.
func (g *Gateway) call(ctx context.Context, p *breakerProcessor, op string, fn func(ctx context.Context) (*Result, error)) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "Payment."+op, trace.WithAttributes(
		attribute.String("payment.processor", p.Name()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := p.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, ok := out.(*Result)
	if !ok || result == nil {
		span.SetStatus(codes.Error, "empty processor result")
		return nil, fmt.Errorf("%s %s: empty result", p.Name(), op)
	}
	if result.Processor == "" {
		result.Processor = p.Name()
	}
	span.SetAttributes(attribute.String("payment.transaction_id", result.TransactionID))
	return result, nil
}
