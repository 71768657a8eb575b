package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

var _ ports.ForecastCache = (*ForecastCache)(nil)

// ForecastCache guarda resultados de pronóstico serializados en JSON con TTL.
// La clave ya incluye el último seq del ítem, así que un movimiento nuevo invalida por construcción.
type ForecastCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewForecastCache(client *goredis.Client, ttl time.Duration) *ForecastCache {
	return &ForecastCache{client: client, ttl: ttl}
}

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func (c *ForecastCache) Get(ctx context.Context, key string) (*entity.ForecastResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var res entity.ForecastResult
	if err := json.Unmarshal(raw, &res); err != nil {
		// Entrada corrupta o de otro formato: se trata como fallo y se recalcula
		return nil, false, fmt.Errorf("decodificar %s: %w", key, err)
	}
	return &res, true, nil
}

func (c *ForecastCache) Set(ctx context.Context, key string, res *entity.ForecastResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("codificar pronóstico: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
