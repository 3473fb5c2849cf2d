package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/personakit/personakit/internal/log"
)

func TestSetupExportsSpans(t *testing.T) {
	var received atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			received.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	ctx := context.Background()
	shutdown, err := Setup(ctx, Config{
		Endpoint:    strings.TrimPrefix(collector.URL, "http://"),
		Environment: "test",
		ServiceName: "personakit-test",
	}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	_, span := otel.Tracer("setup-test").Start(ctx, "test.span")
	span.End()

	// Shutdown flushes the batch processor, pushing the span out.
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
	if received.Load() == 0 {
		t.Error("collector received no trace export")
	}
}

func TestSetupDefaults(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup() returned nil shutdown")
	}
	// No collector is listening on the default endpoint; spans are simply
	// dropped. The provider itself must still exist.
	if otel.GetTracerProvider() == nil {
		t.Error("no global tracer provider registered")
	}
}
