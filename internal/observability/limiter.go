package observability

import (
	"context"

	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedLimiter wraps a ratelimit.Limiter and counts decisions by
// limiter name and outcome.
type InstrumentedLimiter struct {
	inner     ratelimit.Limiter
	name      string
	tracer    trace.Tracer
	decisions metric.Int64Counter
}

var _ ratelimit.Limiter = (*InstrumentedLimiter)(nil)

// NewInstrumentedLimiter wraps inner. name identifies the limiter in
// metrics, e.g. "activity" or "email".
func NewInstrumentedLimiter(inner ratelimit.Limiter, name string) (*InstrumentedLimiter, error) {
	meter := otel.Meter("activitynotifier/ratelimit")

	decisions, err := meter.Int64Counter(
		"ratelimit.decisions",
		metric.WithDescription("Number of rate limit checks by limiter and outcome"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedLimiter{
		inner:     inner,
		name:      name,
		tracer:    otel.Tracer("activitynotifier/ratelimit"),
		decisions: decisions,
	}, nil
}

// InstrumentLimiters wraps every limiter in the set in place.
func InstrumentLimiters(set *ratelimit.Set) error {
	activity, err := NewInstrumentedLimiter(set.Activity, "activity")
	if err != nil {
		return err
	}
	set.Activity = activity

	for _, ch := range models.Channels {
		inner, ok := set.Channels[ch]
		if !ok {
			continue
		}
		wrapped, err := NewInstrumentedLimiter(inner, string(ch))
		if err != nil {
			return err
		}
		set.Channels[ch] = wrapped
	}
	return nil
}

// Check implements ratelimit.Limiter.
func (l *InstrumentedLimiter) Check(ctx context.Context, key string) (ratelimit.Decision, error) {
	ctx, span := l.tracer.Start(ctx, "ratelimit.Check",
		trace.WithAttributes(attribute.String("ratelimit.name", l.name)),
	)
	defer span.End()

	d, err := l.inner.Check(ctx, key)

	outcome := "allowed"
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !d.Allowed:
		outcome = "denied"
	}
	span.SetAttributes(
		attribute.String("ratelimit.outcome", outcome),
		attribute.Int("ratelimit.current", d.Current),
	)
	l.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter", l.name),
		attribute.String("outcome", outcome),
	))
	return d, err
}

// Status implements ratelimit.Limiter.
func (l *InstrumentedLimiter) Status(ctx context.Context, key string) (*ratelimit.Status, error) {
	return l.inner.Status(ctx, key)
}

// Remove implements ratelimit.Limiter.
func (l *InstrumentedLimiter) Remove(ctx context.Context, key string) error {
	return l.inner.Remove(ctx, key)
}

// Clear implements ratelimit.Limiter.
func (l *InstrumentedLimiter) Clear(ctx context.Context) error {
	return l.inner.Clear(ctx)
}

// Config implements ratelimit.Limiter.
func (l *InstrumentedLimiter) Config() ratelimit.Config {
	return l.inner.Config()
}
