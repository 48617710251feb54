package coordinator

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/louisbranch/mockinterview/internal/services/interview/coordinator"

var (
	metricsOnce          sync.Once
	sessionsStarted      otelmetric.Int64Counter
	sessionsCompleted    otelmetric.Int64Counter
	observationsRecorded otelmetric.Int64Counter
	questionFallbacks    otelmetric.Int64Counter
	metricsInitErr       error
)

// initMetrics registers the counters against the global meter provider once.
func initMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		var err error
		if sessionsStarted, err = meter.Int64Counter("interview.sessions.started"); err != nil {
			metricsInitErr = err
			return
		}
		if sessionsCompleted, err = meter.Int64Counter("interview.sessions.completed"); err != nil {
			metricsInitErr = err
			return
		}
		if observationsRecorded, err = meter.Int64Counter("interview.observations.recorded"); err != nil {
			metricsInitErr = err
			return
		}
		if questionFallbacks, err = meter.Int64Counter("interview.questions.fallback"); err != nil {
			metricsInitErr = err
			return
		}
	})
	return metricsInitErr
}

func addCounter(ctx context.Context, counter otelmetric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	if len(attrs) == 0 {
		counter.Add(ctx, 1)
		return
	}
	counter.Add(ctx, 1, otelmetric.WithAttributes(attrs...))
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
