package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	pkgconfig "newsdesk/internal/pkg/config"
)

// IPExtractor resolves the client address a request is attributed to.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP peer address. Headers are never trusted.
type RemoteAddrExtractor struct{}

// ExtractIP strips the port from r.RemoteAddr.
func (RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return hostOnly(r.RemoteAddr)
}

// TrustedProxyExtractor reads X-Forwarded-For, then X-Real-IP, but only when
// the peer is one of the configured proxies. Any other peer is attributed to
// its own address.
type TrustedProxyExtractor struct {
	proxies []netip.Prefix
}

// NewTrustedProxyExtractor creates an extractor trusting proxies.
func NewTrustedProxyExtractor(proxies []netip.Prefix) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{proxies: proxies}
}

// ExtractIP implements IPExtractor.
func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	peer, err := hostOnly(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	if !e.trusted(peer) {
		if r.Header.Get("X-Forwarded-For") != "" {
			slog.Debug("ignoring forwarded header from untrusted peer", slog.String("peer", peer))
		}
		return peer, nil
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if addr, err := netip.ParseAddr(first); err == nil {
			return addr.String(), nil
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		if addr, err := netip.ParseAddr(xr); err == nil {
			return addr.String(), nil
		}
	}
	return peer, nil
}

func (e *TrustedProxyExtractor) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, p := range e.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseProxyList parses IPs and CIDR ranges. A bare IP becomes a /32 or /128.
func ParseProxyList(items []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(items))
	for _, item := range items {
		prefix, err := netip.ParsePrefix(item)
		if err != nil {
			addr, aerr := netip.ParseAddr(item)
			if aerr != nil {
				return nil, fmt.Errorf("invalid proxy address %q: want an IP or CIDR", item)
			}
			prefix = netip.PrefixFrom(addr, addr.BitLen())
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

// LoadIPExtractor builds the extractor from TRUSTED_PROXIES (comma separated
// IPs or CIDRs). Unset means RemoteAddrExtractor. A malformed list is an
// error.
func LoadIPExtractor() (IPExtractor, error) {
	items := pkgconfig.LoadEnvList("TRUSTED_PROXIES", nil)
	if len(items) == 0 {
		return RemoteAddrExtractor{}, nil
	}
	proxies, err := ParseProxyList(items)
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	return NewTrustedProxyExtractor(proxies), nil
}

// hostOnly turns "ip:port" or "[v6]:port" into the bare IP.
func hostOnly(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("empty remote address")
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return "", fmt.Errorf("invalid remote address %q", addr)
	}
	return ip.String(), nil
}
