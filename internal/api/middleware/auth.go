// Package middleware provides the HTTP middleware for the API surface.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// TokenAuth guards routes with a shared-secret bearer token and an optional
// caller allow-list of IP addresses and CIDR ranges.
//
// The service fails closed: with no token configured every authenticated
// call is refused with 503. Token comparison is constant-time.
func TokenAuth(token string, allowList []string, logger zerolog.Logger) echo.MiddlewareFunc {
	prefixes := parseAllowList(allowList, logger)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(prefixes) > 0 && !ipAllowed(prefixes, c.RealIP()) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			if token == "" {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "service token not configured")
			}

			auth := c.Request().Header.Get("Authorization")
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			presented := strings.TrimSpace(parts[1])
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			return next(c)
		}
	}
}

// parseAllowList turns the configured entries into prefixes. A bare address
// becomes a single-address prefix; unparseable entries are logged and
// ignored.
func parseAllowList(entries []string, logger zerolog.Logger) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				logger.Warn().Str("entry", entry).Msg("ignoring invalid allow-list CIDR")
				continue
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			logger.Warn().Str("entry", entry).Msg("ignoring invalid allow-list address")
			continue
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

func ipAllowed(prefixes []netip.Prefix, ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
