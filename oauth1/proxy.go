package oauth1

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ErrInvalidProxy is returned when a trusted proxy entry is neither an IP
// address nor a CIDR prefix.
var ErrInvalidProxy = errors.New("oauth1: invalid trusted proxy entry")

// DefaultTrustedProxies are the loopback and private ranges trusted when
// ProxyConfig.TrustedProxies is empty.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"::1/128",
	"fc00::/7",
}

// ProxyConfig configures ProxyHeaders.
type ProxyConfig struct {
	// TrustedProxies lists IP addresses and CIDR prefixes whose forwarding
	// headers are honoured. Defaults to DefaultTrustedProxies.
	TrustedProxies []string

	// EnableForwarded adds the RFC 7239 Forwarded header as a fallback
	// after X-Forwarded-Proto, X-Forwarded-Scheme and X-Forwarded-Host.
	EnableForwarded bool
}

// ProxyHeaders returns a MiddlewareFunc that restores the scheme and host
// the client used when the request arrives through a trusted reverse
// proxy. Place it in front of Middleware and the token handlers so the
// signature base string is rebuilt from the URL the client signed.
//
// It returns ErrInvalidProxy for unparsable TrustedProxies entries.
func ProxyHeaders(cfg ProxyConfig) (MiddlewareFunc, error) {
	entries := cfg.TrustedProxies
	if len(entries) == 0 {
		entries = DefaultTrustedProxies
	}

	trusted, err := parseTrustedProxies(entries)
	if err != nil {
		return nil, err
	}

	enableForwarded := cfg.EnableForwarded

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isTrustedPeer(r.RemoteAddr, trusted) {
				next.ServeHTTP(w, r)
				return
			}

			var fwd forwarded
			if enableForwarded {
				fwd = parseForwarded(r.Header.Get("Forwarded"))
			}

			scheme := forwardedScheme(r)
			if scheme == "" {
				scheme = fwd.proto
			}

			if scheme != "" {
				u := *r.URL
				u.Scheme = scheme
				r.URL = &u
			}

			if host := r.Header.Get("X-Forwarded-Host"); host != "" {
				r.Host = strings.TrimSpace(host)
			} else if fwd.host != "" {
				r.Host = fwd.host
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func parseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))

	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
			}

			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
		}

		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return prefixes, nil
}

func isTrustedPeer(remoteAddr string, trusted []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}

	addr = addr.Unmap()

	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

// forwardedScheme returns http or https from X-Forwarded-Proto or
// X-Forwarded-Scheme, or "" when neither carries one of those values.
func forwardedScheme(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-Proto", "X-Forwarded-Scheme"} {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}

		value = strings.ToLower(strings.TrimSpace(value))
		if value == "http" || value == "https" {
			return value
		}

		return ""
	}

	return ""
}

type forwarded struct {
	proto string
	host  string
}

// parseForwarded reads proto= and host= from the first element of an
// RFC 7239 Forwarded header, which describes the client-facing hop.
func parseForwarded(header string) forwarded {
	first, _, _ := strings.Cut(header, ",")

	var out forwarded

	for _, pair := range strings.Split(first, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"`)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "proto":
			if v := strings.ToLower(value); v == "http" || v == "https" {
				out.proto = v
			}
		case "host":
			out.host = value
		}
	}

	return out
}
