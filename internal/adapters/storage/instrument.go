package storage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/platform/metrics"
)

const tracerName = "github.com/jsamuelsen/classquotes/storage"

// instrumented records a span and Prometheus metrics around every call.
type instrumented struct {
	next    Store
	backend string
	tracer  trace.Tracer
}

// Instrument wraps st so every operation is traced and counted under the
// backend label.
func Instrument(st Store, backend string) Store {
	return &instrumented{
		next:    st,
		backend: backend,
		tracer:  otel.Tracer(tracerName),
	}
}

func (s *instrumented) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	attrs = append(attrs,
		attribute.String("quote_store.backend", s.backend),
		attribute.String("quote_store.op", op),
	)

	ctx, span := s.tracer.Start(ctx, "quote_store."+op, trace.WithAttributes(attrs...))

	return ctx, span, time.Now()
}

func (s *instrumented) finish(span trace.Span, op string, started time.Time, err error) {
	// Not-found is an answer, not a failure of the store.
	if err != nil && domain.IsNotFound(err) {
		err = nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	metrics.ObserveStoreOp(s.backend, op, started, err)
	span.End()
}

func (s *instrumented) List(ctx context.Context) ([]domain.Quote, error) {
	ctx, span, started := s.start(ctx, "list")

	quotes, err := s.next.List(ctx)
	if err == nil {
		metrics.QuotesListed.WithLabelValues(s.backend).Set(float64(len(quotes)))
		span.SetAttributes(attribute.Int("quote_store.count", len(quotes)))
	}

	s.finish(span, "list", started, err)

	return quotes, err
}

func (s *instrumented) Get(ctx context.Context, id string) (*domain.Quote, error) {
	ctx, span, started := s.start(ctx, "get", attribute.String("quote.id", id))

	q, err := s.next.Get(ctx, id)
	s.finish(span, "get", started, err)

	return q, err
}

func (s *instrumented) Create(ctx context.Context, draft domain.QuoteDraft) (*domain.Quote, error) {
	ctx, span, started := s.start(ctx, "create", attribute.String("quote.type", string(draft.Type)))

	q, err := s.next.Create(ctx, draft)
	if err == nil {
		span.SetAttributes(attribute.String("quote.id", q.ID))
	}

	s.finish(span, "create", started, err)

	return q, err
}

func (s *instrumented) Update(ctx context.Context, id string, patch domain.QuotePatch) (*domain.Quote, error) {
	ctx, span, started := s.start(ctx, "update", attribute.String("quote.id", id))

	q, err := s.next.Update(ctx, id, patch)
	s.finish(span, "update", started, err)

	return q, err
}

func (s *instrumented) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span, started := s.start(ctx, "delete", attribute.String("quote.id", id))

	deleted, err := s.next.Delete(ctx, id)
	span.SetAttributes(attribute.Bool("quote.deleted", deleted))
	s.finish(span, "delete", started, err)

	return deleted, err
}

func (s *instrumented) Close() error {
	return s.next.Close()
}

func (s *instrumented) Name() string {
	return s.next.Name()
}

func (s *instrumented) Check(ctx context.Context) error {
	return s.next.Check(ctx)
}
