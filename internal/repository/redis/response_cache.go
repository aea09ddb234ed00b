package redis

import (
	"context"
	"encoding/json"
	"time"

	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/pkg/rag/schema"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResponseCache(rdb *redis.Client, ttl time.Duration) contract.ResponseCache {
	return &ResponseCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (r *ResponseCache) Get(ctx context.Context, key string) (*schema.Result, bool) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var result schema.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (r *ResponseCache) Set(ctx context.Context, key string, result *schema.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	r.rdb.Set(ctx, key, data, r.ttl)
}

func (r *ResponseCache) InvalidateUser(ctx context.Context, userId uuid.UUID) {
	pattern := "query_cache:" + userId.String() + ":*"

	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			r.rdb.Del(ctx, keys...)
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
