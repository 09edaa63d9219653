package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
)

type RateLimiter struct {
	redisClient *redis.Client
	userRepo    userRepo.UserRepository
}

func NewRateLimiter(redisClient *redis.Client, userRepo userRepo.UserRepository) *RateLimiter {
	return &RateLimiter{redisClient: redisClient, userRepo: userRepo}
}

// allow counts a hit in a fixed window. Fails open when Redis is down so a
// cache outage never takes the API with it.
func (rl *RateLimiter) allow(c *gin.Context, key string, limit int64, window time.Duration) bool {
	if rl.redisClient == nil {
		return true
	}

	ctx := c.Request.Context()
	count, err := rl.redisClient.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		rl.redisClient.Expire(ctx, key, window)
	}
	return count <= limit
}

func rateLimited(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down", "code": "RATE_LIMITED"})
	c.Abort()
}

// Global limits every client IP to a generous per-minute budget.
func (rl *RateLimiter) Global(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:global:%s", c.ClientIP())
		if !rl.allow(c, key, limit, time.Minute) {
			rateLimited(c)
			return
		}
		c.Next()
	}
}

// Auth throttles login and registration attempts per IP.
func (rl *RateLimiter) Auth(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:auth:%s", c.ClientIP())
		if !rl.allow(c, key, limit, 15*time.Minute) {
			rateLimited(c)
			return
		}
		c.Next()
	}
}

// AIQuota enforces the daily generation budget per user. Premium subscribers
// get the multiplied cap.
func (rl *RateLimiter) AIQuota(freeLimit int64, premiumMultiplier int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required", "code": "UNAUTHORIZED"})
			c.Abort()
			return
		}

		limit := freeLimit
		if user, err := rl.userRepo.FindByID(c.Request.Context(), userID.(string)); err == nil && user.IsPremium() {
			limit = freeLimit * premiumMultiplier
		}

		key := fmt.Sprintf("ratelimit:ai:%s:%s", userID, time.Now().Format("2006-01-02"))
		if !rl.allow(c, key, limit, 24*time.Hour) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily AI quota exhausted", "code": "RATE_LIMITED"})
			c.Abort()
			return
		}
		c.Next()
	}
}
