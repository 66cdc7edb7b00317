package observability

import (
	"context"
	"errors"
	"time"

	"activitynotifier/internal/models"
	"activitynotifier/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps the profile store with OpenTelemetry tracing
// and metrics instrumentation. Not-found lookups are expected traffic and
// are not counted as errors.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("activitynotifier/storage")
	meter := otel.Meter("activitynotifier/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedStorage) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

func (s *InstrumentedStorage) Profiles(ctx context.Context) ([]*models.UserProfile, error) {
	ctx, span := s.startSpan(ctx, "Profiles")
	start := time.Now()
	result, err := s.inner.Profiles(ctx)
	span.SetAttributes(attribute.Int("profile.count", len(result)))
	s.record(ctx, span, "Profiles", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetProfile(ctx context.Context, identity string) (*models.UserProfile, error) {
	ctx, span := s.startSpan(ctx, "GetProfile", attribute.String("identity", identity))
	start := time.Now()
	result, err := s.inner.GetProfile(ctx, identity)
	s.record(ctx, span, "GetProfile", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	var identity string
	if profile != nil {
		identity = profile.Identity
	}
	ctx, span := s.startSpan(ctx, "SaveProfile", attribute.String("identity", identity))
	start := time.Now()
	err := s.inner.SaveProfile(ctx, profile)
	s.record(ctx, span, "SaveProfile", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteProfile(ctx context.Context, identity string) error {
	ctx, span := s.startSpan(ctx, "DeleteProfile", attribute.String("identity", identity))
	start := time.Now()
	err := s.inner.DeleteProfile(ctx, identity)
	s.record(ctx, span, "DeleteProfile", start, err)
	return err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
