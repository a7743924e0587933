package fees

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dan13ram/xbridge-engine/models"
	"github.com/gomodule/redigo/redis"
	"github.com/shopspring/decimal"
)

// Cache keeps the last known good native cost per chain.
type Cache interface {
	Get(chain models.Chain) (decimal.Decimal, bool, error)
	Set(chain models.Chain, cost decimal.Decimal) error
}

type MemoryCache struct {
	mu    sync.RWMutex
	costs map[models.Chain]decimal.Decimal
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{costs: make(map[models.Chain]decimal.Decimal)}
}

func (c *MemoryCache) Get(chain models.Chain) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cost, ok := c.costs[chain]
	return cost, ok, nil
}

func (c *MemoryCache) Set(chain models.Chain, cost decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.costs[chain] = cost
	return nil
}

// RedisCache shares last known good costs between engine instances.
type RedisCache struct {
	pool   *redis.Pool
	prefix string
}

func timeoutDialOptions(timeout time.Duration) []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(timeout),
		redis.DialReadTimeout(timeout),
		redis.DialWriteTimeout(timeout),
	}
}

func NewRedisCache(config models.RedisConfig) *RedisCache {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	timeout := time.Duration(config.TimeoutMillis) * time.Millisecond
	pool := &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: 240 * time.Second,
		Dial:        func() (redis.Conn, error) { return redis.Dial("tcp", addr, timeoutDialOptions(timeout)...) },
	}
	return NewRedisCacheWithPool(pool, config.KeyPrefix)
}

func NewRedisCacheWithPool(pool *redis.Pool, prefix string) *RedisCache {
	return &RedisCache{pool: pool, prefix: prefix}
}

func (c *RedisCache) key(chain models.Chain) string {
	return fmt.Sprintf("%s:txcost:%s", c.prefix, chain)
}

func (c *RedisCache) Get(chain models.Chain) (decimal.Decimal, bool, error) {
	conn := c.pool.Get()
	defer conn.Close()

	value, err := redis.String(conn.Do("GET", c.key(chain)))
	if errors.Is(err, redis.ErrNil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	cost, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("cached cost for %s: %w", chain, err)
	}
	return cost, true, nil
}

func (c *RedisCache) Set(chain models.Chain, cost decimal.Decimal) error {
	conn := c.pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", c.key(chain), cost.String())
	return err
}

func (c *RedisCache) Close() error {
	return c.pool.Close()
}
