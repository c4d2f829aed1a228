package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siappa/pkg/requestcontext"
)

func TestClientIPFromRequest_IgnoresHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for from direct caller", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "192.0.2.10:4000", "192.0.2.10"},
		{"real ip from direct caller", map[string]string{"X-Real-IP": "198.51.100.4"}, "192.0.2.10:4000", "192.0.2.10"},
		{"remote addr ipv4", nil, "192.0.2.10:51234", "192.0.2.10"},
		{"remote addr ipv6", nil, "[::1]:8080", "::1"},
		{"no remote addr", nil, "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r))
		})
	}
}

func TestIPResolver_TrustedProxies(t *testing.T) {
	res, err := NewIPResolver([]string{"10.0.0.0/8", "127.0.0.1"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{"untrusted peer spoofing forwarded for", "192.0.2.10:4000", "203.0.113.7", "", "192.0.2.10"},
		{"untrusted peer spoofing real ip", "192.0.2.10:4000", "", "203.0.113.7", "192.0.2.10"},
		{"trusted proxy appends caller", "10.0.0.2:4000", "203.0.113.7", "", "203.0.113.7"},
		{"spoofed left hop is skipped", "10.0.0.2:4000", "1.1.1.1, 203.0.113.7", "", "203.0.113.7"},
		{"chain of trusted proxies", "127.0.0.1:4000", "203.0.113.7, 10.0.0.9, 10.0.0.3", "", "203.0.113.7"},
		{"malformed hop falls back to peer", "10.0.0.2:4000", "203.0.113.7, bogus", "", "10.0.0.2"},
		{"trusted proxy with real ip", "10.0.0.2:4000", "", "198.51.100.4", "198.51.100.4"},
		{"trusted proxy without headers", "10.0.0.2:4000", "", "", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, res.ClientIP(r))
		})
	}
}

func TestNewIPResolver_RejectsMalformedEntries(t *testing.T) {
	_, err := NewIPResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = NewIPResolver([]string{"proxy.internal"})
	assert.Error(t, err)

	res, err := NewIPResolver([]string{" ", ""})
	require.NoError(t, err)
	assert.Empty(t, res.trusted)
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/laporan/lacak/TIKET-2025-AAAAAAAAA", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.99")
	r.Header.Set("User-Agent", "curl/8.5")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.1", gotIP)
	assert.Equal(t, "curl/8.5", gotUA)
}
