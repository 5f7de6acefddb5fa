package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restaurant_finder/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveSearch("fallback")
	observability.ObserveRecompute(nil)
	observability.ObserveRecompute(errors.New("boom"))

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"restfinder_http_requests_total",
		`restfinder_searches_total{outcome="fallback"}`,
		`restfinder_rating_recomputes_total{result="error"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	l := observability.NewLogger("prod", "chatty")
	if got := l.GetLevel().String(); got != "info" {
		t.Fatalf("level = %s, want info", got)
	}
	if got := observability.NewLogger("dev", "debug").GetLevel().String(); got != "debug" {
		t.Fatalf("level = %s, want debug", got)
	}
}
