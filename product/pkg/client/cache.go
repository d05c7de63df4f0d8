package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/product/internal/otel"
	"github.com/Alturino/shopeasy/product/pkg/response"
)

const KeyProducts = "products:%d"

// Catalog is implemented by Client and CachedClient.
type Catalog interface {
	FetchOne(c context.Context, id int64) (response.Product, error)
	FetchPage(c context.Context, limit int) ([]response.Product, error)
}

// CachedClient keeps successfully fetched products in redis and collapses
// concurrent loads of the same id into one upstream call. Failures are never
// cached and cache errors only cost a cache miss.
type CachedClient struct {
	next    Catalog
	cache   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *Metrics
}

func NewCachedClient(next Catalog, cache *redis.Client, ttl time.Duration, metrics *Metrics) *CachedClient {
	return &CachedClient{next: next, cache: cache, ttl: ttl, metrics: metrics}
}

func (cc *CachedClient) FetchOne(c context.Context, id int64) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "CachedClient FetchOne")
	defer span.End()

	cacheKey := fmt.Sprintf(KeyProducts, id)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CachedClient FetchOne").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	v, err, shared := cc.group.Do(cacheKey, func() (interface{}, error) {
		lg := logger.With().Str(log.KeyProcess, "finding product in cache").Logger()
		lg.Trace().Msg("finding product in cache")
		data, err := cc.cache.Get(c, cacheKey).Bytes()
		if err == nil {
			product := response.Product{}
			if err = json.Unmarshal(data, &product); err == nil {
				cc.metrics.cacheLookup(true)
				lg.Debug().Msg("found product in cache")
				return product, nil
			}
			err = fmt.Errorf("failed unmarshaling cached product with error=%w", err)
			lg.Warn().Err(err).Msg(err.Error())
		} else if !errors.Is(err, redis.Nil) {
			err = fmt.Errorf("failed getting product from cache with error=%w", err)
			lg.Warn().Err(err).Msg(err.Error())
		}
		cc.metrics.cacheLookup(false)

		lg = logger.With().Str(log.KeyProcess, "fetching product from catalog").Logger()
		lg.Trace().Msg("fetching product from catalog")
		product, err := cc.next.FetchOne(c, id)
		if err != nil {
			return response.Product{}, err
		}

		lg = logger.With().Str(log.KeyProcess, "inserting product to cache").Logger()
		lg.Trace().Msg("inserting product to cache")
		data, err = json.Marshal(product)
		if err == nil {
			err = cc.cache.Set(c, cacheKey, data, cc.ttl).Err()
		}
		if err != nil {
			err = fmt.Errorf("failed inserting product to cache with error=%w", err)
			lg.Warn().Err(err).Msg(err.Error())
			return product, nil
		}
		lg.Trace().Msg("inserted product to cache")
		return product, nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		return response.Product{}, err
	}
	logger.Trace().Bool("shared", shared).Msg("resolved product")
	return v.(response.Product), nil
}

func (cc *CachedClient) FetchPage(c context.Context, limit int) ([]response.Product, error) {
	return cc.next.FetchPage(c, limit)
}
