package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rest-user-service/internal/adapter/gin/handler"
	grpcmiddleware "rest-user-service/internal/adapter/grpc/middleware"
	"rest-user-service/pkg/logger"
)

// RateLimiter returns a Gin middleware applying the shared token bucket per
// client IP and route.
func RateLimiter(limiter *grpcmiddleware.RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("http:%s:%s:%s", c.Request.Method, route, clientIP)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// fail open
			logger.WithContext(c.Request.Context(), log).Warn("rate limiter redis error, allowing request",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
		}

		if !allowed {
			logger.WithContext(c.Request.Context(), log).Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("route", route),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.ErrorResponse{
				StatusCode: http.StatusTooManyRequests,
				Message:    http.StatusText(http.StatusTooManyRequests),
			})
			return
		}

		c.Next()
	}
}
