package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exchangeRatesCollection = "exchange_rates"

// ExchangeRateStore keeps the last successfully fetched table per base.
type ExchangeRateStore interface {
	Save(ctx context.Context, table *models.ExchangeRateTable) error
	FindByBase(ctx context.Context, base string) (*models.ExchangeRateTable, error)
}

type mongoExchangeRateStore struct {
	collection *mongo.Collection
}

func NewMongoExchangeRateStore(db *mongo.Database) ExchangeRateStore {
	return &mongoExchangeRateStore{collection: db.Collection(exchangeRatesCollection)}
}

func (s *mongoExchangeRateStore) Save(ctx context.Context, table *models.ExchangeRateTable) error {
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": table.Base}, table, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save rates for %s: %w", table.Base, err)
	}
	return nil
}

func (s *mongoExchangeRateStore) FindByBase(ctx context.Context, base string) (*models.ExchangeRateTable, error) {
	var table models.ExchangeRateTable
	if err := s.collection.FindOne(ctx, bson.M{"_id": base}).Decode(&table); err != nil {
		return nil, notFound(err)
	}
	return &table, nil
}

// RateCache is the short-lived cache in front of the rate provider.
type RateCache interface {
	Get(ctx context.Context, base string) (*models.ExchangeRateTable, error)
	Set(ctx context.Context, table *models.ExchangeRateTable, ttl time.Duration) error
}

const rateCachePrefix = "rates:"

type redisRateCache struct {
	client *redis.Client
}

func NewRedisRateCache(client *redis.Client) RateCache {
	return &redisRateCache{client: client}
}

func (c *redisRateCache) Get(ctx context.Context, base string) (*models.ExchangeRateTable, error) {
	raw, err := c.client.Get(ctx, rateCachePrefix+base).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get rates %s: %w", base, err)
	}
	var table models.ExchangeRateTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("decode cached rates %s: %w", base, err)
	}
	return &table, nil
}

func (c *redisRateCache) Set(ctx context.Context, table *models.ExchangeRateTable, ttl time.Duration) error {
	b, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode rates %s: %w", table.Base, err)
	}
	if err := c.client.Set(ctx, rateCachePrefix+table.Base, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set rates %s: %w", table.Base, err)
	}
	return nil
}
