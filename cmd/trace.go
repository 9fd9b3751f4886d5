// Copyright © 2024 The LISPC authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"gopkg.in/yaml.v3"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/compiler/x/profiler"
)

// Tracing APIs accepted by --trace-api.
const (
	traceAPIOpenTelemetry = "otel"
	traceAPIOpenCensus    = "opencensus"
)

// traceSpan is one finished compilation stage.
type traceSpan struct {
	Name   string `yaml:"name"`
	Micros int64  `yaml:"micros"`
	File   string `yaml:"file,omitempty"`
	Line   int64  `yaml:"line,omitempty"`
}

// traceRecorder collects spans in the order they end.
type traceRecorder struct {
	mu    sync.Mutex
	spans []traceSpan
}

func (r *traceRecorder) add(s traceSpan) {
	r.mu.Lock()
	r.spans = append(r.spans, s)
	r.mu.Unlock()
}

// write encodes the recorded spans as a YAML sequence.
func (r *traceRecorder) write(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.spans); err != nil {
		return err
	}
	return enc.Close()
}

// otelExporter feeds spans from the OpenTelemetry SDK to a recorder.
type otelExporter struct {
	rec *traceRecorder
}

var _ sdktrace.SpanExporter = (*otelExporter)(nil)

func (e *otelExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		span := traceSpan{
			Name:   s.Name(),
			Micros: s.EndTime().Sub(s.StartTime()).Microseconds(),
		}
		for _, kv := range s.Attributes() {
			switch kv.Key {
			case semconv.CodeFilepathKey:
				span.File = kv.Value.AsString()
			case semconv.CodeLineNumberKey:
				span.Line = kv.Value.AsInt64()
			}
		}
		e.rec.add(span)
	}
	return nil
}

func (e *otelExporter) Shutdown(context.Context) error {
	return nil
}

// ocExporter feeds OpenCensus spans to a recorder.
type ocExporter struct {
	rec *traceRecorder
}

var _ octrace.Exporter = (*ocExporter)(nil)

func (e *ocExporter) ExportSpan(s *octrace.SpanData) {
	span := traceSpan{
		Name:   s.Name,
		Micros: s.EndTime.Sub(s.StartTime).Microseconds(),
	}
	for _, a := range s.Annotations {
		if a.Message != "source" {
			continue
		}
		if file, ok := a.Attributes["file"].(string); ok && file != "no-source" {
			span.File = file
		}
		if line, ok := a.Attributes["line"].(int64); ok {
			span.Line = line
		}
	}
	e.rec.add(span)
}

// startTrace returns an enabled profiler that records compilation stages
// into rec through the named tracing API.  The returned stop function
// flushes and detaches the tracing backend.
func startTrace(ctx context.Context, api string, rec *traceRecorder) (compiler.Profiler, func() error, error) {
	var prof compiler.Profiler
	var stop func() error
	switch api {
	case traceAPIOpenTelemetry:
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(&otelExporter{rec: rec}),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		prof = profiler.NewOpenTelemetryAnnotator(ctx)
		stop = func() error {
			defer otel.SetTracerProvider(prev)
			return tp.Shutdown(ctx)
		}
	case traceAPIOpenCensus:
		exp := &ocExporter{rec: rec}
		octrace.RegisterExporter(exp)
		octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
		prof = profiler.NewOpenCensusAnnotator(ctx)
		stop = func() error {
			octrace.UnregisterExporter(exp)
			return nil
		}
	default:
		return nil, nil, fmt.Errorf("unknown trace api %q: use %q or %q", api, traceAPIOpenTelemetry, traceAPIOpenCensus)
	}
	if err := prof.Enable(); err != nil {
		_ = stop()
		return nil, nil, err
	}
	return prof, stop, nil
}

// finishTrace completes prof and writes the spans recorded in rec to path.
func finishTrace(log logrus.FieldLogger, prof compiler.Profiler, stop func() error, rec *traceRecorder, path string) {
	completeProfile(log, prof)
	if err := stop(); err != nil {
		log.WithError(err).Error("unable to flush trace")
	}
	f, err := os.Create(path)
	if err != nil {
		log.WithError(err).Error("unable to write trace")
		return
	}
	defer f.Close() //nolint:errcheck
	if err := rec.write(f); err != nil {
		log.WithError(err).Error("unable to write trace")
	}
}
