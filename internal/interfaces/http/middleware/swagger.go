package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/backoffice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SwaggerConfig holds configuration for Swagger endpoint protection
type SwaggerConfig struct {
	Enabled     bool     // Whether Swagger endpoint is enabled
	RequireAuth bool     // Require JWT authentication to access Swagger
	AllowedIPs  []string // IP whitelist (CIDR notation supported, empty = allow all)
}

// ipWhitelist holds a parsed set of allowed addresses and networks.
type ipWhitelist struct {
	ips  []net.IP
	nets []*net.IPNet
}

// parseIPWhitelist parses a mixed list of single IPs and CIDR ranges.
// Entries that fail to parse are silently skipped.
func parseIPWhitelist(entries []string) ipWhitelist {
	var wl ipWhitelist
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil {
				wl.nets = append(wl.nets, network)
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			wl.ips = append(wl.ips, ip)
		}
	}
	return wl
}

func (wl ipWhitelist) allows(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range wl.ips {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range wl.nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SwaggerProtection returns a middleware that guards the API documentation
// endpoints. A disabled config answers 404 for every request; otherwise the
// IP whitelist (when non-empty) is checked first, then the JWT middleware
// when RequireAuth is set. Whitelist and auth can be combined.
func SwaggerProtection(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc) gin.HandlerFunc {
	// Parse the whitelist once, not per request
	whitelist := parseIPWhitelist(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound,
				dto.NewErrorResponse(dto.ErrCodeNotFound, "API documentation is not available"))
			return
		}

		if len(cfg.AllowedIPs) > 0 && !whitelist.allows(getClientIP(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Access to API documentation is restricted"))
			return
		}

		if cfg.RequireAuth && jwtMiddleware != nil {
			jwtMiddleware(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// getClientIP resolves the client address, preferring Gin's ClientIP which
// honors trusted proxy headers, and falling back to the raw remote address.
func getClientIP(c *gin.Context) net.IP {
	if ip := net.ParseIP(c.ClientIP()); ip != nil {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have port
		host = c.Request.RemoteAddr
	}
	return net.ParseIP(host)
}
