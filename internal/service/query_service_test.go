package service

import (
	"context"
	"testing"

	"multilingual-rag-be/internal/config"
	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/pkg/rag/schema"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessQueryRejectsUnsupportedLanguage(t *testing.T) {
	svc := NewQueryService(nil, newFakeCache(), "en")

	_, err := svc.ProcessQuery(context.Background(), uuid.New(), &dto.ProcessQueryRequest{
		Query:    "hello",
		Language: "xx",
	})

	requireFiberStatus(t, err, fiber.StatusBadRequest)
}

func TestProcessQueryServesCachedResult(t *testing.T) {
	cache := newFakeCache()
	userId := uuid.New()
	req := &dto.ProcessQueryRequest{Query: "How efficient are solar panels?"}

	cache.stored[contract.CacheKey(userId, req.Query, nil)] = &schema.Result{
		Answer:     "cached answer",
		Language:   "en",
		Confidence: 0.9,
	}

	// A nil pipeline proves the hit short-circuits before stage one.
	svc := NewQueryService(nil, cache, "en")

	res, err := svc.ProcessQuery(context.Background(), userId, req)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "cached answer", res.Answer)
	assert.Equal(t, "en", res.Language)
}

func TestCacheFiltersSeparatesOverrides(t *testing.T) {
	userId := uuid.New()
	base := &dto.ProcessQueryRequest{Query: "solar efficiency"}
	pinned := &dto.ProcessQueryRequest{Query: "solar efficiency", Language: "hi"}
	widened := &dto.ProcessQueryRequest{Query: "solar efficiency", TopK: 10}

	keys := map[string]bool{
		contract.CacheKey(userId, base.Query, cacheFilters(base)):       true,
		contract.CacheKey(userId, pinned.Query, cacheFilters(pinned)):   true,
		contract.CacheKey(userId, widened.Query, cacheFilters(widened)): true,
	}

	// Same question, three different knob settings, three cache slots.
	assert.Len(t, keys, 3)
}

func TestCacheFiltersDoesNotMutateRequestFilters(t *testing.T) {
	plain := &dto.ProcessQueryRequest{
		Query:   "q",
		Filters: map[string]interface{}{"document_id": "abc"},
	}
	assert.Equal(t, plain.Filters, cacheFilters(plain))

	pinned := &dto.ProcessQueryRequest{
		Query:    "q",
		Filters:  map[string]interface{}{"document_id": "abc"},
		Language: "ta",
	}
	merged := cacheFilters(pinned)
	assert.Contains(t, merged, "_language")
	assert.Contains(t, merged, "document_id")
	assert.NotContains(t, pinned.Filters, "_language")
}

func TestSupportedLanguagesListsFallback(t *testing.T) {
	svc := NewQueryService(nil, newFakeCache(), "en")

	res := svc.SupportedLanguages()
	assert.Equal(t, "en", res.Fallback)
	assert.Len(t, res.Languages, len(config.SupportedLanguages))

	codes := make(map[string]string, len(res.Languages))
	for _, l := range res.Languages {
		codes[l.Code] = l.Name
	}
	assert.Equal(t, "English", codes["en"])
	assert.Equal(t, "Hindi", codes["hi"])
	assert.Contains(t, codes, "ta")
}
