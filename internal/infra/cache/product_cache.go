package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"trinket-service/internal/config"
	"trinket-service/internal/domain"
)

const (
	productKeyPrefix = "product:"
	// versionTTL only has to outlive a single fill.
	versionTTL = 24 * time.Hour
)

var errStaleFill = errors.New("product invalidated during fill")

func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", cfg.Addr)
	}
	return client, nil
}

type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func ProductKey(id uint64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

func versionKey(id uint64) string {
	return ProductKey(id) + ":ver"
}

func (c *ProductCache) Get(ctx context.Context, id uint64) (*domain.Product, bool) {
	b, err := c.rdb.Get(ctx, ProductKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("product_id", id).Warn("product cache get failed")
		}
		return nil, false
	}

	var p domain.Product
	if err := json.Unmarshal(b, &p); err != nil {
		log.WithError(err).WithField("product_id", id).Warn("product cache entry unreadable")
		return nil, false
	}
	return &p, true
}

// Version returns the invalidation counter of id, or -1 when it cannot be
// read. Set ignores a negative version.
func (c *ProductCache) Version(ctx context.Context, id uint64) int64 {
	v, err := c.rdb.Get(ctx, versionKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0
		}
		log.WithError(err).WithField("product_id", id).Warn("product cache version read failed")
		return -1
	}
	return v
}

func (c *ProductCache) Set(ctx context.Context, p *domain.Product, version int64) {
	if version < 0 {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		log.WithError(err).WithField("product_id", p.ID).Warn("product cache marshal failed")
		return
	}

	verKey := versionKey(p.ID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ProductKey(p.ID), data, c.ttl)
			return nil
		})
		return err
	}, verKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		log.WithField("product_id", p.ID).Debug("product cache fill dropped, invalidated meanwhile")
	default:
		log.WithError(err).WithField("product_id", p.ID).Warn("product cache set failed")
	}
}

// Invalidate deletes the entries and bumps their versions in one MULTI, so
// any fill that started earlier is rejected by Set.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...uint64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ProductKey(id))
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, id := range ids {
			pipe.Incr(ctx, versionKey(id))
			pipe.Expire(ctx, versionKey(id), versionTTL)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("keys", keys).Warn("product cache invalidate failed")
	}
}

type NopProductCache struct{}

func (NopProductCache) Get(context.Context, uint64) (*domain.Product, bool) { return nil, false }
func (NopProductCache) Version(context.Context, uint64) int64               { return -1 }
func (NopProductCache) Set(context.Context, *domain.Product, int64)         {}
func (NopProductCache) Invalidate(context.Context, ...uint64)               {}
