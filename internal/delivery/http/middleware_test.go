package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{
			name:           "exact match",
			origin:         "https://shop.example.com",
			allowedOrigins: []string{"https://shop.example.com"},
			want:           true,
		},
		{
			name:           "global wildcard",
			origin:         "https://shop.example.com",
			allowedOrigins: []string{"*"},
			want:           true,
		},
		{
			name:           "prefix wildcard match",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches second",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{"https://shop.example.com", "http://localhost:3000"},
			want:           true,
		},
		{
			name:           "no match",
			origin:         "http://evil.com",
			allowedOrigins: []string{"https://shop.example.com", "http://localhost:*"},
			want:           false,
		},
		{
			name:           "empty origin with wildcard",
			origin:         "",
			allowedOrigins: []string{"*"},
			want:           false,
		},
		{
			name:           "empty allowed list",
			origin:         "https://shop.example.com",
			allowedOrigins: []string{},
			want:           false,
		},
		{
			name:           "exact entry does not match subdomain",
			origin:         "https://admin.shop.example.com",
			allowedOrigins: []string{"https://shop.example.com"},
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowedOrigins)
			if got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		method         string
		wantStatus     int
		wantCORS       bool
	}{
		{
			name:           "allowed origin - GET request",
			origin:         "https://shop.example.com",
			allowedOrigins: []string{"*"},
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantCORS:       true,
		},
		{
			name:           "allowed origin - OPTIONS request",
			origin:         "https://shop.example.com",
			allowedOrigins: []string{"https://shop.example.com"},
			method:         http.MethodOptions,
			wantStatus:     http.StatusNoContent,
			wantCORS:       true,
		},
		{
			name:           "disallowed origin",
			origin:         "http://evil.com",
			allowedOrigins: []string{"https://shop.example.com"},
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantCORS:       false,
		},
		{
			name:           "no origin header",
			allowedOrigins: []string{"*"},
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantCORS:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tt.allowedOrigins))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				assert.Equal(t, tt.origin, corsHeader)
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), SessionHeader)
			} else {
				assert.Empty(t, corsHeader)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(perMinute int) *gin.Engine {
		router := gin.New()
		router.Use(RateLimitMiddleware(perMinute))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})
		return router
	}

	request := func(router *gin.Engine, remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("rejects requests over the per-IP budget", func(t *testing.T) {
		router := newRouter(2)

		assert.Equal(t, http.StatusOK, request(router, "10.0.0.1:1000"))
		assert.Equal(t, http.StatusOK, request(router, "10.0.0.1:1001"))
		assert.Equal(t, http.StatusTooManyRequests, request(router, "10.0.0.1:1002"))
	})

	t.Run("tracks each IP separately", func(t *testing.T) {
		router := newRouter(1)

		assert.Equal(t, http.StatusOK, request(router, "10.0.0.1:1000"))
		assert.Equal(t, http.StatusTooManyRequests, request(router, "10.0.0.1:1000"))
		assert.Equal(t, http.StatusOK, request(router, "10.0.0.2:1000"))
	})

	t.Run("disabled when limit is not positive", func(t *testing.T) {
		router := newRouter(0)

		for i := 0; i < 50; i++ {
			assert.Equal(t, http.StatusOK, request(router, "10.0.0.1:1000"))
		}
	})
}

func TestIPRateLimiter_DropsIdleClients(t *testing.T) {
	limiter := newIPRateLimiter(10)
	limiter.allow("10.0.0.1")
	limiter.allow("10.0.0.2")

	limiter.limiters["10.0.0.1"].lastSeen = limiter.lastGC.Add(-10 * time.Minute)
	limiter.lastGC = limiter.lastGC.Add(-10 * time.Minute)

	limiter.allow("10.0.0.2")

	assert.NotContains(t, limiter.limiters, "10.0.0.1")
	assert.Contains(t, limiter.limiters, "10.0.0.2")
}
