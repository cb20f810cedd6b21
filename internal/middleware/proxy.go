package middleware

import (
	"fmt"
	"net"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies configures how c.RealIP() resolves the client address.
// X-Forwarded-For is honored only for hops inside trustedCIDRs; with no
// CIDRs the peer address is used as is. Rate limiting depends on this.
//
// Common values: "127.0.0.1/8", "10.0.0.0/8", "172.16.0.0/12", "fd00::/8".
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) error {
	if len(trustedCIDRs) == 0 {
		e.IPExtractor = echo.ExtractIPDirect()
		return nil
	}

	// Start from trusting nothing, then add the configured ranges.
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedCIDRs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("parsing trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(network))
	}

	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
	return nil
}
