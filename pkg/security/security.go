package security

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CORS 只放行白名单内的Origin并响应预检请求。
// 白名单条目"*"放行所有来源（仅本地调试用，此时不下发Credentials头）
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
			continue
		}
		originSet[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		switch {
		case origin == "":
			// 非跨域请求
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case originSet[strings.TrimRight(origin, "/")]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, Origin, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Max-Age", "7200")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Secure 补充常规安全响应头
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端IP做令牌桶限流。
// 探活与指标端点不参与限流；闲置超过三个窗口的桶在请求路径上顺带回收
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		lastGC  = time.Now()
	)

	limit := rate.Limit(float64(maxRequests) / window.Seconds())
	expiry := 3 * window
	if expiry < time.Minute {
		expiry = time.Minute
	}

	return func(c *gin.Context) {
		switch c.FullPath() {
		case "/health", "/metrics":
			c.Next()
			return
		}

		now := time.Now()
		key := c.ClientIP()

		mu.Lock()
		if now.Sub(lastGC) > expiry {
			for ip, b := range buckets {
				if now.Sub(b.lastSeen) > expiry {
					delete(buckets, ip)
				}
			}
			lastGC = now
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(limit, maxRequests)}
			buckets[key] = b
		}
		b.lastSeen = now
		mu.Unlock()

		if !b.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
