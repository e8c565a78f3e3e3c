package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"PulseOpsPlatform/pkg/logger"
	"PulseOpsPlatform/pkg/ratelimit"
	"PulseOpsPlatform/pkg/redis"
)

// RateLimitMiddleware middleware для rate limiting запросов
type RateLimitMiddleware struct {
	logger      logger.Logger
	rateLimiter ratelimit.RateLimiter
}

// NewRateLimitMiddleware создает новый middleware для rate limiting
func NewRateLimitMiddleware(redisClient *redis.Client, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		logger:      log,
		rateLimiter: ratelimit.NewRedisRateLimiter(redisClient.Client),
	}
}

// NewRateLimitMiddlewareWithLimiter создает middleware с заданным rate limiter
func NewRateLimitMiddlewareWithLimiter(limiter ratelimit.RateLimiter, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		logger:      log,
		rateLimiter: limiter,
	}
}

// RateLimit применяет rate limiting к запросам.
// При недоступности Redis запросы пропускаются.
func (m *RateLimitMiddleware) RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.getRateLimitKey(r)

			exceeded, err := m.rateLimiter.CheckRateLimit(r.Context(), key, requests, window)
			if err != nil {
				m.logger.Error("Rate limit check failed",
					logger.String("key", key),
					logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if exceeded {
				m.logger.Warn("Rate limit exceeded",
					logger.String("key", key),
					logger.String("path", r.URL.Path),
					logger.String("method", r.Method))

				m.writeRateLimitResponse(w)
				return
			}

			m.addRateLimitHeaders(w, requests, window)

			next.ServeHTTP(w, r)
		})
	}
}

// getRateLimitKey получает ключ для rate limiting по IP адресу
func (m *RateLimitMiddleware) getRateLimitKey(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}

	return "ip:" + ip
}

// addRateLimitHeaders добавляет заголовки с информацией о rate limit
func (m *RateLimitMiddleware) addRateLimitHeaders(w http.ResponseWriter, requests int, window time.Duration) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(requests))
	w.Header().Set("X-RateLimit-Window", window.String())
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window).Unix(), 10))
}

// writeRateLimitResponse отправляет ответ о превышении rate limit
func (m *RateLimitMiddleware) writeRateLimitResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]interface{}{
		"success": false,
		"error":   "Rate limit exceeded",
		"code":    http.StatusTooManyRequests,
		"message": "Too many requests. Please try again later.",
	}

	jsonData, err := json.Marshal(response)
	if err != nil {
		w.Write([]byte(`{"success": false, "error": "Rate limit exceeded"}`))
		return
	}

	w.Write(jsonData)
}
