package models

import "strings"

const keyPrefixIP = "rl:ip"

// SanitizeKeySegment escapes the key delimiter so a crafted identifier such as
// an IPv6 literal cannot spill into an adjacent bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewIPKey builds the bucket key for one client IP within an endpoint class.
func NewIPKey(class EndpointClass, ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return keyPrefixIP + ":" + string(class) + ":" + SanitizeKeySegment(ip)
}
