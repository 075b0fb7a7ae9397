package utils

import (
	"net"
	"strings"
)

// NormalizeIdentity converts a client address into the identity used for quota accounting. Ports and IPv6 zone
// identifiers are removed and the address is rendered in its canonical form so that the same client always maps to
// the same quota records. Values that can't be parsed as IP addresses are returned trimmed but otherwise unchanged.
func NormalizeIdentity(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if i := strings.IndexByte(addr, '%'); i >= 0 {
		addr = addr[:i]
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return addr
}
