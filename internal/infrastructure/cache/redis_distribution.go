package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

var _ ports.DistributionCache = (*RedisDistributionCache)(nil)

// RedisDistributionCache guarda la distribución global de un producto-talla con TTL corto.
// Cualquier error de Redis se registra y se trata como miss.
type RedisDistributionCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// Config conexión a Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisDistributionCache construye el caché; ttl <= 0 usa 30 segundos.
func NewRedisDistributionCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisDistributionCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisDistributionCache{client: client, ttl: ttl, log: log}
}

func distributionKey(companyID, productID, size string) string {
	return fmt.Sprintf("distribution:%s:%s:%s", companyID, productID, size)
}

func (c *RedisDistributionCache) Get(ctx context.Context, companyID, productID, size string) (*inventory.Distribution, bool) {
	raw, err := c.client.Get(ctx, distributionKey(companyID, productID, size)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("product_id", productID).Msg("leer distribución de redis")
		}
		return nil, false
	}
	var d inventory.Distribution
	if err := json.Unmarshal(raw, &d); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("distribución en caché corrupta")
		return nil, false
	}
	return &d, true
}

func (c *RedisDistributionCache) Set(ctx context.Context, companyID string, d inventory.Distribution) {
	raw, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, distributionKey(companyID, d.ProductID, d.Size), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("product_id", d.ProductID).Msg("guardar distribución en redis")
	}
}

func (c *RedisDistributionCache) Invalidate(ctx context.Context, companyID, productID, size string) {
	if err := c.client.Del(ctx, distributionKey(companyID, productID, size)).Err(); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("invalidar distribución en redis")
	}
}
