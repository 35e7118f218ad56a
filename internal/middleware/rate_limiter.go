package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Baaaki/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const bannedIPsKey = "ratelimit:banned"

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	MaxRequests int           // requests allowed per window
	Window      time.Duration // counting window
	BlockTime   time.Duration // how long an IP stays blocked after exceeding the limit
}

// RateLimiter is a fixed-window, per-IP limiter backed by Redis.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// Middleware rejects banned IPs with 403 and IPs over the limit with 429.
// Redis failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientIP := c.ClientIP()

		if banned, _ := rl.IsIPBanned(ctx, clientIP); banned {
			c.String(http.StatusForbidden, "Your IP address has been banned.")
			c.Abort()
			return
		}

		allowed, retryAfter, err := rl.CheckLimit(ctx, clientIP)
		if err != nil {
			logger.Log.Warn("Rate limiter unavailable", zap.String("ip", clientIP), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.String(http.StatusTooManyRequests, "Too many requests. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CheckLimit counts one request for ip. Once the count passes MaxRequests
// the IP is blocked for BlockTime; retryAfter is the remaining block.
func (rl *RateLimiter) CheckLimit(ctx context.Context, ip string) (bool, time.Duration, error) {
	blockKey := fmt.Sprintf("ratelimit:block:%s", ip)

	blocked, err := rl.redis.TTL(ctx, blockKey).Result()
	if err != nil {
		return false, 0, err
	}
	if blocked > 0 {
		return false, blocked, nil
	}

	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(rl.config.MaxRequests) {
		block := rl.config.BlockTime
		if block <= 0 {
			ttl, err := rl.redis.TTL(ctx, key).Result()
			if err != nil || ttl <= 0 {
				ttl = rl.config.Window
			}
			return false, ttl, nil
		}
		if err := rl.redis.Set(ctx, blockKey, 1, block).Err(); err != nil {
			return false, 0, err
		}
		logger.Log.Warn("Rate limit exceeded", zap.String("ip", ip), zap.Duration("block", block))
		return false, block, nil
	}

	return true, 0, nil
}

// IsIPBanned reports whether ip is in the ban set. The set is managed
// directly in Redis.
func (rl *RateLimiter) IsIPBanned(ctx context.Context, ip string) (bool, error) {
	return rl.redis.SIsMember(ctx, bannedIPsKey, ip).Result()
}
