package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "10.0.0.5:5555", want: "10.0.0.5"},
		{name: "ipv6 remote", remote: "[::1]:8080", want: "::1"},
		{
			name:    "headers ignored without trust",
			remote:  "10.0.0.5:5555",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "10.0.0.5",
		},
		{
			name:       "left-most forwarded",
			remote:     "127.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8"},
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:   "cloudflare first",
			remote: "127.0.0.1:1",
			headers: map[string]string{
				"CF-Connecting-IP": "9.9.9.9",
				"X-Forwarded-For":  "1.2.3.4",
			},
			trustProxy: true,
			want:       "9.9.9.9",
		},
		{
			name:       "real ip fallback",
			remote:     "127.0.0.1:1",
			headers:    map[string]string{"X-Real-IP": "8.8.4.4"},
			trustProxy: true,
			want:       "8.8.4.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r, tt.trustProxy))
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.7 ", "garbage", "", "::1"})
	assert.False(t, m.IsEmpty())

	assert.True(t, m.Allow("10.20.30.40"))
	assert.True(t, m.Allow("192.168.1.7"))
	assert.True(t, m.Allow("::ffff:10.1.1.1"))
	assert.True(t, m.Allow("::1"))
	assert.False(t, m.Allow("192.168.1.8"))
	assert.False(t, m.Allow("not-an-ip"))

	assert.True(t, NewIPMatcher(nil).IsEmpty())
}
