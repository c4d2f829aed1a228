// Package metadata records the caller's network identity for rate limiting and logging.
package metadata

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"siappa/pkg/requestcontext"
)

// IPResolver derives the client IP from the socket peer. Forwarding headers are
// read only when the peer is one of the trusted proxies.
type IPResolver struct {
	trusted []netip.Prefix
}

// NewIPResolver parses trusted proxy entries. Each entry is a CIDR or a bare
// address. No entries means headers are never read.
func NewIPResolver(trustedProxies []string) (*IPResolver, error) {
	res := &IPResolver{}
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
			}
			res.trusted = append(res.trusted, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		res.trusted = append(res.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return res, nil
}

// Middleware stores the client IP and User-Agent in the request context.
// Apply it before anything that keys on the caller, such as the rate limiter.
func (res *IPResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), res.ClientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the caller's address. Behind a trusted proxy it is the
// right-most X-Forwarded-For hop that is not itself a trusted proxy.
func (res *IPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !res.isTrusted(peer) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				// A malformed hop was written by someone we do not trust.
				return peer
			}
			if !res.contains(addr.Unmap()) {
				return addr.Unmap().String()
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}
	return peer
}

func (res *IPResolver) isTrusted(host string) bool {
	if len(res.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return res.contains(addr.Unmap())
}

func (res *IPResolver) contains(addr netip.Addr) bool {
	for _, p := range res.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientMetadata records the socket peer as the client IP and never reads
// forwarding headers.
func ClientMetadata(next http.Handler) http.Handler {
	return (&IPResolver{}).Middleware(next)
}

// ClientIPFromRequest returns the socket peer address of r.
func ClientIPFromRequest(r *http.Request) string {
	return remoteHost(r.RemoteAddr)
}

func remoteHost(remoteAddr string) string {
	if remoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
