package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testSetup(t *testing.T) (*Metrics, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()
	m, reader := newTestMetrics(t)

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return m, reader, exp
}

func TestMiddleware_SpanAndCorrelationID(t *testing.T) {
	m, _, exp := testSetup(t)

	var cid string
	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid = CorrelationID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/query?q=kali", nil))

	if len(cid) != 32 {
		t.Fatalf("correlation id = %q, want 32 hex chars", cid)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != cid {
		t.Errorf("X-Correlation-ID = %q, want %q", got, cid)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "HTTP GET /v1/query" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	found := false
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "http.response.status_code" && a.Value.AsInt64() == 404 {
			found = true
		}
	}
	if !found {
		t.Error("span missing http.response.status_code=404")
	}
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m, reader, _ := testSetup(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/monsters/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(m)(mux)
	for _, path := range []string{"/v1/monsters/1", "/v1/monsters/2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	rm := collect(t, reader)
	met := findMetric(rm, "padinfo.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("data points = %d, want 1 (one route)", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 2 {
		t.Errorf("count = %d, want 2", dp.Count)
	}
	if v, _ := dp.Attributes.Value("route"); v.AsString() != "GET /v1/monsters/{id}" {
		t.Errorf("route = %q", v.AsString())
	}
}

func TestMiddleware_PropagatesW3CTraceContext(t *testing.T) {
	m, _, _ := testSetup(t)

	var cid string
	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid = CorrelationID(r.Context())
	}))
	req := httptest.NewRequest("GET", "/readyz", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	const want = "4bf92f3577b34da6a3ce929d0e0e4736"
	if cid != want {
		t.Errorf("correlation id = %q, want %q", cid, want)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != want {
		t.Errorf("X-Correlation-ID = %q, want %q", got, want)
	}
}
