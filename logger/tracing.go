// Copyright 2020 Hewlett Packard Enterprise Development LP

package logger

import (
	"context"
	"io"

	"github.com/opentracing/opentracing-go"
	otLog "github.com/opentracing/opentracing-go/log"
	log "github.com/sirupsen/logrus"
	"github.com/uber/jaeger-client-go"
	"github.com/uber/jaeger-client-go/config"
)

// InitTracing installs a Jaeger tracer as the opentracing global tracer.  Sampling and reporting
// can be tuned with the JAEGER_* environment variables.  Close the returned closer on exit to
// flush the spans.
func InitTracing(service string) (io.Closer, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = service
	}
	if cfg.Sampler == nil {
		cfg.Sampler = &config.SamplerConfig{}
	}
	if cfg.Sampler.Type == "" {
		cfg.Sampler.Type = jaeger.SamplerTypeConst
		cfg.Sampler.Param = 1
	}
	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		Errorf("Unable to initialize tracing, service=%v, err=%v", service, err)
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	Tracef("Tracing initialized, service=%v", service)
	return closer, nil
}

// WithSpan creates an entry carrying the trace and span ids of the span in ctx, if any
func WithSpan(ctx context.Context) *log.Entry {
	entry := sourced()
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return entry
	}
	if sc, ok := span.Context().(jaeger.SpanContext); ok {
		entry = entry.WithFields(log.Fields{
			"traceID": sc.TraceID().String(),
			"spanID":  sc.SpanID().String(),
		})
	}
	return entry
}

// LogToSpan records an event on the span in ctx
func LogToSpan(ctx context.Context, event string, fields Fields) {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return
	}
	otFields := []otLog.Field{otLog.String("event", event)}
	for k, v := range fields {
		otFields = append(otFields, otLog.Object(k, v))
	}
	span.LogFields(otFields...)
}
