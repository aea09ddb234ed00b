package service

import (
	"context"
	"fmt"
	"log"

	"multilingual-rag-be/internal/config"
	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/pkg/rag/pipeline"
	"multilingual-rag-be/pkg/rag/schema"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IQueryService interface {
	ProcessQuery(ctx context.Context, userId uuid.UUID, req *dto.ProcessQueryRequest) (*dto.ProcessQueryResponse, error)
	SupportedLanguages() *dto.SupportedLanguagesResponse
	Stats() *dto.AgentStatsResponse
	ResetStats()
}

type queryService struct {
	pipeline         *pipeline.Pipeline
	cache            contract.ResponseCache
	fallbackLanguage string
}

func NewQueryService(p *pipeline.Pipeline, cache contract.ResponseCache, fallbackLanguage string) IQueryService {
	return &queryService{
		pipeline:         p,
		cache:            cache,
		fallbackLanguage: fallbackLanguage,
	}
}

func (s *queryService) ProcessQuery(ctx context.Context, userId uuid.UUID, req *dto.ProcessQueryRequest) (*dto.ProcessQueryResponse, error) {
	if req.Language != "" && !config.IsLanguageSupported(req.Language) {
		return nil, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("unsupported language '%s', see GET /api/query/v1/languages", req.Language))
	}

	key := contract.CacheKey(userId, req.Query, cacheFilters(req))

	if cached, found := s.cache.Get(ctx, key); found {
		log.Printf("[QUERY] Cache hit for user %s", userId)
		return toQueryResponse(cached, true), nil
	}

	var opts []pipeline.QueryOption
	if req.Language != "" {
		opts = append(opts, pipeline.WithLanguage(req.Language))
	}
	if req.TopK > 0 {
		opts = append(opts, pipeline.WithTopK(req.TopK))
	}

	result, err := s.pipeline.ProcessQuery(ctx, req.Query, userId.String(), req.Filters, opts...)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, result)
	return toQueryResponse(result, false), nil
}

// cacheFilters folds per-request overrides into the map hashed for the cache
// key, so a pinned language or custom top_k never collides with the default
// run of the same query. The underscore prefix keeps the synthetic keys out
// of any real filter namespace.
func cacheFilters(req *dto.ProcessQueryRequest) map[string]interface{} {
	if req.Language == "" && req.TopK == 0 {
		return req.Filters
	}
	merged := make(map[string]interface{}, len(req.Filters)+2)
	for k, v := range req.Filters {
		merged[k] = v
	}
	if req.Language != "" {
		merged["_language"] = req.Language
	}
	if req.TopK > 0 {
		merged["_top_k"] = req.TopK
	}
	return merged
}

func (s *queryService) SupportedLanguages() *dto.SupportedLanguagesResponse {
	languages := make([]dto.SupportedLanguage, 0, len(config.SupportedLanguages))
	for _, code := range config.SupportedLanguages {
		languages = append(languages, dto.SupportedLanguage{
			Code: code,
			Name: config.LanguageName(code),
		})
	}
	return &dto.SupportedLanguagesResponse{
		Languages: languages,
		Fallback:  s.fallbackLanguage,
	}
}

func (s *queryService) Stats() *dto.AgentStatsResponse {
	return &dto.AgentStatsResponse{Stats: s.pipeline.Stats()}
}

func (s *queryService) ResetStats() {
	s.pipeline.ResetStats()
}

func toQueryResponse(result *schema.Result, cached bool) *dto.ProcessQueryResponse {
	return &dto.ProcessQueryResponse{
		Answer:     result.Answer,
		Citations:  result.Citations,
		Confidence: result.Confidence,
		Language:   result.Language,
		QueryType:  result.QueryType,
		Sources:    result.Sources,
		Metadata:   result.Metadata,
		Stats:      result.Stats,
		Cached:     cached,
	}
}
