// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware that attaches a
// conservative set of HTTP security headers. The same process answers the
// enquiry API and, optionally, the marketing site's static files, so caching
// rules can be scoped to the API path while the site stays cacheable.
//
// Design notes:
//   - HSTS is opt-in and only applied when the request is actually HTTPS
//   - A Content-Security-Policy is only sent when configured (HTML pages)
//   - Header values are idempotent and inexpensive to compute per request
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
//
// EnableHSTS controls whether to emit Strict-Transport-Security for HTTPS
// requests (never for plain HTTP). HSTSMaxAge defaults to 180 days.
//
// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires). When
// NoStorePrefix is non-empty only paths under it are affected, so static
// assets can still be cached by browsers and CDNs.
//
// ContentSecurityPolicy, when non-empty, is sent verbatim on every response.
type SecurityOptions struct {
	EnableHSTS            bool          // set true only when traffic is HTTPS end-to-end
	HSTSMaxAge            time.Duration // e.g., 180 * 24h
	NoStore               bool          // add Cache-Control: no-store
	NoStorePrefix         string        // e.g., "/api"; empty means every path
	EnablePolicy          bool          // include Permissions-Policy, etc.
	ContentSecurityPolicy string        // for the static site
}

// SecurityHeaders returns a Gin middleware that adds security headers.
//
//   - Always: X-Content-Type-Options: nosniff, X-Frame-Options: DENY,
//     Referrer-Policy: strict-origin-when-cross-origin
//   - EnablePolicy: Permissions-Policy and X-Permitted-Cross-Domain-Policies
//   - NoStore: Cache-Control: no-store, Pragma: no-cache, Expires: 0
//   - EnableHSTS on HTTPS: Strict-Transport-Security with includeSubDomains
//   - X-Request-ID is exposed to browser clients via
//     Access-Control-Expose-Headers so the contact form can report it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds()) // 180 days default
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", opt.ContentSecurityPolicy)
		}

		if opt.NoStore && strings.HasPrefix(c.Request.URL.Path, opt.NoStorePrefix) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, requestIDHeader)
			} else if !strings.Contains(cur, requestIDHeader) {
				h.Set(hdr, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the incoming request used HTTPS either directly
// (r.TLS != nil) or via a reverse proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
