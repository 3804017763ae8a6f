// Package trace wires up OpenTelemetry tracing for githydra.
//
// The exporter writes spans to a local file: a single-process TUI has no
// collector to ship to, but the span log makes slow backend calls visible.
package trace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Init installs a global tracer provider exporting to the file at path.
// An empty path disables tracing (a no-op provider remains installed).
func Init(path, version string) (Shutdown, error) {
	if path == "" {
		return func(context.Context) error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}

	shutdown, err := initWriter(f, version)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		return err
	}, nil
}

// initWriter installs a provider exporting to w. Split out for tests.
func initWriter(w io.Writer, version string) (Shutdown, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res := sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("githydra"),
		semconv.ServiceVersion(version),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
