package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lzy/jshow/config"
)

func static(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestPropertiesChecker(t *testing.T) {
	tests := []struct {
		name  string
		props *config.Properties
		want  Status
	}{
		{"resolved", config.NewProperties("abc123"), StatusHealthy},
		{"empty", config.NewProperties(""), StatusDegraded},
		{"nil", nil, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPropertiesChecker(tt.props).Check(context.Background())
			if r.Status != tt.want {
				t.Fatalf("Status = %v, want %v", r.Status, tt.want)
			}
			if tt.props == nil && r.Error != ErrNotResolved {
				t.Errorf("Error = %v, want ErrNotResolved", r.Error)
			}
			for k, v := range r.Details {
				if s, ok := v.(string); ok && s == "abc123" {
					t.Errorf("detail %q leaks tokenSign", k)
				}
			}
		})
	}
}

func TestPropertiesChecker_ReportsLength(t *testing.T) {
	r := NewPropertiesChecker(config.NewProperties("abc123")).Check(context.Background())
	if got := r.Details["tokenSign.length"]; got != 6 {
		t.Errorf("tokenSign.length = %v, want 6", got)
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()
	agg.Register(static("a", Healthy("ok")))

	r, err := agg.Check(context.Background(), "a")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if r.Status != StatusHealthy || r.Message != "ok" {
		t.Errorf("Check() = %+v", r)
	}
	if _, err := agg.Check(context.Background(), "missing"); err != ErrCheckerNotFound {
		t.Errorf("Check(missing) error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register(static("a", Healthy("ok")))
	agg.Register(static("b", Degraded("meh")))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("CheckAll() returned %d results, want 2", len(results))
	}
	if got := OverallStatus(results); got != StatusDegraded {
		t.Errorf("OverallStatus() = %v, want degraded", got)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(20 * time.Millisecond)
	agg.Register(NewCheckerFunc("slow", func(ctx context.Context) Result {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return Healthy("late")
	}))

	r, err := agg.Check(context.Background(), "slow")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if r.Status != StatusUnhealthy || r.Error != ErrCheckTimeout {
		t.Errorf("Check() = %+v, want timeout", r)
	}
}

func TestOverallStatus_Empty(t *testing.T) {
	if got := OverallStatus(nil); got != StatusHealthy {
		t.Errorf("OverallStatus(nil) = %v, want healthy", got)
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name      string
		props     *config.Properties
		readyCode int
		readyBody string
		status    string
	}{
		{"resolved", config.NewProperties("abc123"), http.StatusOK, "OK", "healthy"},
		{"empty", config.NewProperties(""), http.StatusOK, "DEGRADED", "degraded"},
		{"unresolved", nil, http.StatusServiceUnavailable, "UNHEALTHY", "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register(NewPropertiesChecker(tt.props))
			mux := http.NewServeMux()
			RegisterHandlers(mux, agg)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if w.Code != http.StatusOK {
				t.Errorf("/healthz status = %d, want 200", w.Code)
			}

			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if w.Code != tt.readyCode || w.Body.String() != tt.readyBody {
				t.Errorf("/readyz = %d %q, want %d %q", w.Code, w.Body.String(), tt.readyCode, tt.readyBody)
			}

			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if strings.Contains(w.Body.String(), "abc123") {
				t.Fatal("/health leaks tokenSign")
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode /health: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("/health status = %q, want %q", resp.Status, tt.status)
			}
			if _, ok := resp.Checks["config"]; !ok {
				t.Error("/health missing config check")
			}
		})
	}
}
