package memory

import (
	"context"
	"strings"
	"time"

	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/pkg/rag/schema"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type ResponseCache struct {
	cache *cache.Cache
}

func NewResponseCache(ttl time.Duration) contract.ResponseCache {
	// Purge expired entries every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &ResponseCache{
		cache: c,
	}
}

func (r *ResponseCache) Get(ctx context.Context, key string) (*schema.Result, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(*schema.Result), true
	}
	return nil, false
}

func (r *ResponseCache) Set(ctx context.Context, key string, result *schema.Result) {
	r.cache.Set(key, result, cache.DefaultExpiration)
}

func (r *ResponseCache) InvalidateUser(ctx context.Context, userId uuid.UUID) {
	prefix := "query_cache:" + userId.String() + ":"
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Delete(key)
		}
	}
}
