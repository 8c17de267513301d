package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type staticKey string

func (k staticKey) Matches(candidate string) bool {
	return candidate != "" && candidate == string(k)
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantReject bool
	}{
		{name: "correct key", query: "?api_key=s3cret", wantStatus: http.StatusOK},
		{name: "missing key", query: "", wantStatus: http.StatusUnauthorized, wantReject: true},
		{name: "empty key", query: "?api_key=", wantStatus: http.StatusUnauthorized, wantReject: true},
		{name: "wrong key", query: "?api_key=nope", wantStatus: http.StatusUnauthorized, wantReject: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			rejected := 0
			reached := false
			router.Use(RequireAPIKey(staticKey("s3cret"), func(*gin.Context) { rejected++ }))
			router.GET("/status", func(c *gin.Context) {
				reached = true
				c.JSON(http.StatusOK, gin.H{"status": "online"})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantReject {
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
				assert.False(t, reached, "handler must not run after rejection")
				assert.Equal(t, 1, rejected)
			} else {
				assert.True(t, reached)
				assert.Zero(t, rejected)
			}
		})
	}
}

func TestRequireAPIKeyNilCallback(t *testing.T) {
	router := setupTestRouter()
	router.Use(RequireAPIKey(staticKey("k"), nil))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "online"})
	})

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatus     int
		wantCORSHeader bool
	}{
		{"simple GET with origin", http.MethodGet, "http://localhost:3000", http.StatusOK, true},
		{"preflight OPTIONS", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, true},
		{"no origin header", http.MethodGet, "", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/status", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORSHeader {
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	router.GET("/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDifferentClients(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))
	router.GET("/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000", "10.0.0.3:1000"} {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "first request from %s", addr)
	}
}

func TestIPLimitersEvictIdleClients(t *testing.T) {
	start := time.Now()
	l := &ipLimiters{
		cfg:     RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute},
		clients: make(map[string]*ipLimiter),
		swept:   start,
	}

	l.get("10.0.0.1", start)
	l.get("10.0.0.2", start.Add(90*time.Second))
	require.Len(t, l.clients, 1)
	_, kept := l.clients["10.0.0.2"]
	assert.True(t, kept)
}

func TestDefaultConfigs(t *testing.T) {
	cors := DefaultCORSConfig()
	assert.Contains(t, cors.AllowMethods, http.MethodGet)
	assert.Equal(t, 12*time.Hour, cors.MaxAge)

	rl := DefaultRateLimitConfig()
	assert.Equal(t, 10, rl.RequestsPerSecond)
	assert.Equal(t, 20, rl.Burst)
	assert.Positive(t, rl.IdleTTL)
}
