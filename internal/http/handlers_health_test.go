package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(name string) HealthCheck {
	return HealthCheck{Name: name, Check: func(context.Context) error { return nil }}
}

func failing(name string) HealthCheck {
	return HealthCheck{Name: name, Check: func(context.Context) error { return errors.New("dial tcp: connection refused") }}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		code   int
		body   string
	}{
		{name: "process only", code: http.StatusOK, body: `{"status":"ok"}`},
		{
			name:   "store and ledger reachable",
			checks: []HealthCheck{passing("profiles"), passing("ledger")},
			code:   http.StatusOK,
			body:   `{"status":"ok","checks":{"profiles":"ok","ledger":"ok"}}`,
		},
		{
			name:   "ledger down",
			checks: []HealthCheck{passing("profiles"), failing("ledger")},
			code:   http.StatusServiceUnavailable,
			body:   `{"status":"degraded","checks":{"profiles":"ok","ledger":"unreachable"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthHandler(tt.checks)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			require.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "connection refused", "check errors stay out of the response")
		})
	}
}

func TestHealthHandlerHEAD(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler([]HealthCheck{failing("profiles")})(rec, httptest.NewRequest(http.MethodHead, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Zero(t, rec.Body.Len())
}

func TestHealthHandlerBoundsEachCheck(t *testing.T) {
	var deadline bool
	check := HealthCheck{Name: "drafts", Check: func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	}}
	rec := httptest.NewRecorder()
	healthHandler([]HealthCheck{check})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, deadline)
}
