package services

import (
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// instruments carries the observability hooks shared by every service.
type instruments struct {
	log     logging.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// Option configures a service.
type Option func(*instruments)

func WithLogger(l logging.Logger) Option {
	return func(i *instruments) { i.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(i *instruments) { i.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *instruments) { i.metrics = m }
}

func newInstruments(opts []Option) instruments {
	var i instruments
	for _, o := range opts {
		o(&i)
	}
	i.log = logging.OrNop(i.log)
	if i.tracer == nil {
		i.tracer = telemetry.Tracer(nil)
	}
	return i
}
