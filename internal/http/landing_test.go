package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteLanding(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "local path", target: "/driver-profile/abc", want: `content="0;url=/driver-profile/abc"`},
		{name: "absolute url", target: "https://evil.example/x", want: `content="0;url=/"`},
		{name: "scheme-relative", target: "//evil.example/x", want: `content="0;url=/"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeLanding(rec, tt.target)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}
