package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"sahaya-donation-api/models"
)

type RateLimiter struct {
	client *redis.Client
}

// RateLimitConfig representa a configuração de rate limiting de um endpoint
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

// Os endpoints de envio de SMS são os mais restritos: cada envio consome a
// cota do provedor de verificação.
var defaultConfigs = map[string]RateLimitConfig{
	"/api/donation/phone": {
		Requests: 3,
		Window:   time.Minute * 10,
		Message:  "Too many verification attempts. Please try again in 10 minutes.",
	},
	"/api/donation/resend": {
		Requests: 5,
		Window:   time.Minute * 10,
		Message:  "Too many resend attempts. Please try again in 10 minutes.",
	},
	"/api/auth/login": {
		Requests: 5,
		Window:   time.Minute * 15,
		Message:  "Too many login attempts. Please try again in 15 minutes.",
	},
	"/api/contact": {
		Requests: 5,
		Window:   time.Minute * 10,
		Message:  "Too many messages. Please wait before sending another one.",
	},
	"default": {
		Requests: 60,
		Window:   time.Minute,
		Message:  "Rate limit exceeded. Please slow down your requests.",
	},
}

func NewRateLimiter(redisURL string) (*RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL for rate limiter: %v", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %v", err)
	}

	return &RateLimiter{client: client}, nil
}

// RateLimitMiddleware retorna o middleware de rate limiting
func (rl *RateLimiter) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			config := rl.getConfigForEndpoint(r.URL.Path)
			key := rl.getRateLimitKey(r)

			allowed, remaining, resetTime, err := rl.checkRateLimit(r.Context(), key, config)
			if err != nil {
				// Redis fora do ar não bloqueia o site
				log.Printf("Rate limit check error: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				log.Printf("Rate limit exceeded for key: %s, endpoint: %s", key, r.URL.Path)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds()), 10))
				w.WriteHeader(http.StatusTooManyRequests)

				json.NewEncoder(w).Encode(models.APIResponse{
					Status:  "error",
					Message: config.Message,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) getConfigForEndpoint(path string) RateLimitConfig {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if config, exists := defaultConfigs[path]; exists {
		return config
	}

	if strings.HasPrefix(path, "/api/admin/") {
		return RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
			Message:  "Admin API rate limit exceeded.",
		}
	}

	return defaultConfigs["default"]
}

func (rl *RateLimiter) getRateLimitKey(r *http.Request) string {
	return fmt.Sprintf("rate_limit:%s:%s", rl.getClientIP(r), r.URL.Path)
}

// getClientIP extrai o IP real do cliente, considerando proxies
func (rl *RateLimiter) getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// checkRateLimit aplica uma janela deslizante atômica em Redis
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := time.Now()
	windowStart := now.Truncate(config.Window)
	resetTime = windowStart.Add(config.Window)

	luaScript := `
        local key = KEYS[1]
        local window_start = tonumber(ARGV[1])
        local limit = tonumber(ARGV[2])
        local current_time = ARGV[3]

        redis.call('ZREMRANGEBYSCORE', key, 0, window_start - 1)

        local current_count = redis.call('ZCARD', key)

        if current_count < limit then
            redis.call('ZADD', key, current_time, current_time)
            redis.call('EXPIRE', key, 3600)
            return {1, limit - current_count - 1}
        else
            return {0, 0}
        end
    `

	result, err := rl.client.Eval(ctx, luaScript, []string{key},
		windowStart.Unix(), config.Requests, fmt.Sprintf("%d", now.UnixNano())).Result()
	if err != nil {
		return false, 0, resetTime, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, resetTime, fmt.Errorf("unexpected rate limit script result: %v", result)
	}

	allowedInt, _ := values[0].(int64)
	remainingInt, _ := values[1].(int64)

	return allowedInt == 1, int(remainingInt), resetTime, nil
}

func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}
