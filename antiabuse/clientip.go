package antiabuse

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// Oversized forwarding headers are not hashed; attackers should not get to
// feed arbitrary-length input into key derivation.
const maxForwardHeaderLength = 256

// UnknownClientKey is the shared bucket for requests without a derivable IP.
// Many such clients share one limit: fail-open beats fail-shut here.
const UnknownClientKey = "ip:unknown"

// ClientKey derives the rate-limit key for a request. Real IPs are hashed
// before use; the second return is a short hash prefix for log correlation
// (never the plaintext IP).
func ClientKey(r *http.Request) (key string, logID string) {
	ip := clientIPFromHeaders(r)
	if ip == "" {
		return UnknownClientKey, "unknown"
	}

	sum := sha256.Sum256([]byte(ip))
	digest := hex.EncodeToString(sum[:])
	return "ip:" + digest, digest[:12]
}

// clientIPFromHeaders walks the forwarding header chain: the first entry of
// X-Forwarded-For, then the single-value alternates, then the structured
// Forwarded header's for= token.
func clientIPFromHeaders(r *http.Request) string {
	if raw := r.Header.Get("X-Forwarded-For"); raw != "" {
		if len(raw) > maxForwardHeaderLength {
			return ""
		}
		first, _, _ := strings.Cut(raw, ",")
		if ip := normalizeIP(first); ip != "" {
			return ip
		}
	}

	for _, header := range []string{"X-Real-IP", "CF-Connecting-IP", "True-Client-IP"} {
		raw := r.Header.Get(header)
		if raw == "" {
			continue
		}
		if len(raw) > maxForwardHeaderLength {
			return ""
		}
		if ip := normalizeIP(raw); ip != "" {
			return ip
		}
	}

	if raw := r.Header.Get("Forwarded"); raw != "" {
		if len(raw) > maxForwardHeaderLength {
			return ""
		}
		if ip := normalizeIP(forwardedForToken(raw)); ip != "" {
			return ip
		}
	}

	return ""
}

// forwardedForToken extracts the for= value of the first element of an
// RFC 7239 Forwarded header.
func forwardedForToken(raw string) string {
	first, _, _ := strings.Cut(raw, ",")
	for _, part := range strings.Split(first, ";") {
		name, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "for") {
			return strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return ""
}

// normalizeIP strips IPv6 brackets and a trailing :port on IPv4 values.
func normalizeIP(raw string) string {
	ip := strings.TrimSpace(raw)
	if ip == "" {
		return ""
	}

	if strings.HasPrefix(ip, "[") {
		if end := strings.Index(ip, "]"); end > 0 {
			return ip[1:end]
		}
		return strings.Trim(ip, "[]")
	}

	// A single colon means IPv4:port; more than one means a bare IPv6
	// address, which keeps its colons.
	if strings.Count(ip, ":") == 1 {
		host, _, _ := strings.Cut(ip, ":")
		return host
	}
	return ip
}
