package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobfeed/internal/logger"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:     2,
		PerMinute: 6,
		Now:       func() time.Time { return now },
	})(noContent)

	req := func(remote string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/jobs/more", nil)
		r.RemoteAddr = remote
		return r
	}

	assert.Equal(t, http.StatusNoContent, serve(h, req("1.1.1.1:1")).Code)
	rec := serve(h, req("1.1.1.1:2"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(h, req("1.1.1.1:3"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusNoContent, serve(h, req("2.2.2.2:1")).Code)

	now = now.Add(10 * time.Second)
	assert.Equal(t, http.StatusNoContent, serve(h, req("1.1.1.1:4")).Code)
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(noContent)

	r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	r.RemoteAddr = "10.1.2.3:4000"
	assert.Equal(t, http.StatusNoContent, serve(h, r).Code)

	r.RemoteAddr = "192.168.0.1:4000"
	assert.Equal(t, http.StatusForbidden, serve(h, r).Code)

	open := AllowOnlyCIDRS(nil, false, logger.Nop())(noContent)
	assert.Equal(t, http.StatusNoContent, serve(open, r).Code)
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"jobs.example.com", "*.internal.lan:8080"}, logger.Nop())(noContent)

	tests := []struct {
		host string
		want int
	}{
		{host: "jobs.example.com", want: http.StatusNoContent},
		{host: "JOBS.example.com:8080", want: http.StatusNoContent},
		{host: "api.internal.lan", want: http.StatusNoContent},
		{host: "internal.lan", want: http.StatusForbidden},
		{host: "evil.com", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/bookmarks", nil)
			r.Host = tt.host
			assert.Equal(t, tt.want, serve(h, r).Code)
		})
	}
}
