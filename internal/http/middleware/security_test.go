package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSiteCSP = "default-src 'self'; frame-ancestors 'none'"

// siteAndAPI serves the enquiry API and a couple of site files behind
// RequestID and SecurityHeaders, the way the router mounts them.
func siteAndAPI(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(SecurityHeaders(opt))
	r.POST("/api/enquiries", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"id": "e1"}) })
	r.GET("/api/enquiries", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"enquiries": []any{}}) })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "<html></html>") })
	r.GET("/assets/app.js", func(c *gin.Context) { c.String(http.StatusOK, "console.log(1)") })
	return r
}

func do(r http.Handler, method, target string, mut ...func(*http.Request)) http.Header {
	req := httptest.NewRequest(method, target, nil)
	for _, m := range mut {
		m(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_APIAndSiteCaching(t *testing.T) {
	r := siteAndAPI(SecurityOptions{
		NoStore:               true,
		NoStorePrefix:         "/api",
		EnablePolicy:          true,
		ContentSecurityPolicy: testSiteCSP,
	})

	tests := []struct {
		method, path string
		noStore      bool
	}{
		{http.MethodPost, "/api/enquiries", true},
		{http.MethodGet, "/api/enquiries", true},
		{http.MethodGet, "/", false},
		{http.MethodGet, "/assets/app.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			h := do(r, tt.method, tt.path)

			if h.Get("X-Content-Type-Options") != "nosniff" ||
				h.Get("X-Frame-Options") != "DENY" ||
				h.Get("Referrer-Policy") != "strict-origin-when-cross-origin" {
				t.Fatalf("baseline headers missing: %#v", h)
			}
			if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
				t.Fatalf("policy headers missing: %#v", h)
			}
			if h.Get("Content-Security-Policy") != testSiteCSP {
				t.Fatalf("CSP = %q", h.Get("Content-Security-Policy"))
			}

			stored := h.Get("Cache-Control") == "no-store" && h.Get("Pragma") == "no-cache" && h.Get("Expires") == "0"
			if tt.noStore && !stored {
				t.Fatalf("enquiry responses must not be cached: %#v", h)
			}
			if !tt.noStore && h.Get("Cache-Control") != "" {
				t.Fatalf("site file must stay cacheable, got %q", h.Get("Cache-Control"))
			}
		})
	}
}

func TestSecurityHeaders_MinimalOptions(t *testing.T) {
	h := do(siteAndAPI(SecurityOptions{}), http.MethodPost, "/api/enquiries")

	for _, k := range []string{"Permissions-Policy", "Content-Security-Policy", "Cache-Control", "Strict-Transport-Security"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
}

func TestSecurityHeaders_ExposesRequestIDToContactForm(t *testing.T) {
	r := siteAndAPI(SecurityOptions{NoStore: true, NoStorePrefix: "/api"})
	h := do(r, http.MethodPost, "/api/enquiries", func(req *http.Request) {
		req.Header.Set("Origin", "https://cinema.example")
	})
	if h.Get(requestIDHeader) == "" || h.Get("Access-Control-Expose-Headers") != requestIDHeader {
		t.Fatalf("request id not exposed: %#v", h)
	}

	// An expose list set earlier in the chain is extended, never duplicated.
	for _, tc := range []struct{ existing, want string }{
		{"Retry-After", "Retry-After, X-Request-ID"},
		{"X-Request-ID, Retry-After", "X-Request-ID, Retry-After"},
	} {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(RequestID())
		r.Use(func(c *gin.Context) {
			c.Header("Access-Control-Expose-Headers", tc.existing)
			c.Next()
		})
		r.Use(SecurityHeaders(SecurityOptions{}))
		r.POST("/api/enquiries", func(c *gin.Context) { c.Status(http.StatusTooManyRequests) })

		if got := do(r, http.MethodPost, "/api/enquiries").Get("Access-Control-Expose-Headers"); got != tc.want {
			t.Fatalf("expose = %q; want %q", got, tc.want)
		}
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	r := siteAndAPI(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour})

	if got := do(r, http.MethodPost, "/api/enquiries").Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS over plain HTTP: %q", got)
	}

	viaTLS := do(r, http.MethodPost, "/api/enquiries", func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})
	if got := viaTLS.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains" {
		t.Fatalf("HSTS via TLS = %q", got)
	}

	viaProxy := do(r, http.MethodGet, "/", func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "HTTPS")
	})
	if got := viaProxy.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains" {
		t.Fatalf("HSTS via proxy = %q", got)
	}

	def := do(siteAndAPI(SecurityOptions{EnableHSTS: true}), http.MethodGet, "/", func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})
	if got := def.Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains" {
		t.Fatalf("default HSTS max-age = %q", got)
	}
}
