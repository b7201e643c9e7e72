package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doRequest(r *gin.Engine, method, path, origin, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// 白名单内的来源原样回显并带上Credentials
func TestCORSAllowedOrigin(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:5173"}))

	w := doRequest(r, http.MethodGet, "/api/ping", "http://localhost:5173", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Allow-Origin = %q, 期望回显白名单来源", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("白名单来源应允许Credentials")
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Fatal("跨域响应应带Vary: Origin")
	}
}

// 名单外的来源不下发任何放行头
func TestCORSUnknownOrigin(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:5173"}))

	w := doRequest(r, http.MethodGet, "/api/ping", "http://evil.example.com", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("名单外来源不应下发Allow-Origin，实际 %q", got)
	}
}

// 通配条目放行所有来源，但不带Credentials
func TestCORSWildcard(t *testing.T) {
	r := newRouter(CORS([]string{"*"}))

	w := doRequest(r, http.MethodGet, "/api/ping", "http://anywhere.example.com", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("通配模式Allow-Origin = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatal("通配模式不应下发Credentials头")
	}
}

// 预检请求直接以204短路
func TestCORSPreflight(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:5173"}))

	w := doRequest(r, http.MethodOptions, "/api/ping", "http://localhost:5173", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("预检响应码 = %d, 期望 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("预检响应应列出允许的方法")
	}
}

// 超过窗口配额的请求收到429
func TestRateLimiterRejectsOverLimit(t *testing.T) {
	r := newRouter(RateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodGet, "/api/ping", "", "10.0.0.1:4000")
		if w.Code != http.StatusOK {
			t.Fatalf("第%d次请求响应码 = %d", i+1, w.Code)
		}
	}
	if w := doRequest(r, http.MethodGet, "/api/ping", "", "10.0.0.1:4000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("超配额请求响应码 = %d, 期望 429", w.Code)
	}
}

// 不同IP各自独立计数
func TestRateLimiterPerClient(t *testing.T) {
	r := newRouter(RateLimiter(1, time.Minute))

	if w := doRequest(r, http.MethodGet, "/api/ping", "", "10.0.0.1:4000"); w.Code != http.StatusOK {
		t.Fatalf("首个客户端响应码 = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/ping", "", "10.0.0.2:4000"); w.Code != http.StatusOK {
		t.Fatalf("第二个客户端不应受首个客户端配额影响，响应码 = %d", w.Code)
	}
}

// 探活端点不占配额
func TestRateLimiterSkipsHealth(t *testing.T) {
	r := newRouter(RateLimiter(1, time.Minute))

	for i := 0; i < 5; i++ {
		if w := doRequest(r, http.MethodGet, "/health", "", "10.0.0.1:4000"); w.Code != http.StatusOK {
			t.Fatalf("探活第%d次响应码 = %d", i+1, w.Code)
		}
	}
	if w := doRequest(r, http.MethodGet, "/api/ping", "", "10.0.0.1:4000"); w.Code != http.StatusOK {
		t.Fatalf("探活不应消耗业务配额，响应码 = %d", w.Code)
	}
}
