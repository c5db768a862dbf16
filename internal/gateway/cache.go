package gateway

import (
	"context"
	"fmt"
	"time"

	"ela-checkout/internal/logger"

	"github.com/go-redis/redis/v8"
)

const customerKeyPrefix = "stripe_customer:"

// CustomerCache memoizes Stripe customer IDs by email so repeated checkout
// attempts skip the customer list call. A nil cache is a valid no-op.
type CustomerCache struct {
	Client *redis.Client
	TTL    time.Duration
	log    *logger.Logger
}

// InitializeCustomerCache sets up Redis for customer caching and tests the
// connection.
func InitializeCustomerCache(redisAddr string, ttl time.Duration, log *logger.Logger) (*CustomerCache, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Error("CACHE", fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
		return nil, err
	}

	log.Info("CACHE", fmt.Sprintf("Connected to Redis at %s for customer caching", redisAddr))
	return &CustomerCache{Client: redisClient, TTL: ttl, log: log}, nil
}

// Get returns the cached customer ID for an email, if any. Cache errors
// count as a miss.
func (c *CustomerCache) Get(ctx context.Context, email string) (string, bool) {
	if c == nil || c.Client == nil {
		return "", false
	}
	id, err := c.Client.Get(ctx, customerKeyPrefix+email).Result()
	if err != nil {
		if err != redis.Nil && c.log != nil {
			c.log.Warn("CACHE", fmt.Sprintf("Customer cache read failed for %s: %v", email, err))
		}
		return "", false
	}
	return id, true
}

// Put stores a customer ID, best-effort.
func (c *CustomerCache) Put(ctx context.Context, email, customerID string) {
	if c == nil || c.Client == nil {
		return
	}
	if err := c.Client.Set(ctx, customerKeyPrefix+email, customerID, c.TTL).Err(); err != nil && c.log != nil {
		c.log.Warn("CACHE", fmt.Sprintf("Customer cache write failed for %s: %v", email, err))
	}
}
