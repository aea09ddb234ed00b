package dto

import (
	"multilingual-rag-be/pkg/rag/schema"
)

type ProcessQueryRequest struct {
	Query   string                 `json:"query" validate:"required,min=1"`
	Filters map[string]interface{} `json:"filters"`
	// Language pins the answer language instead of detecting it.
	Language string `json:"language" validate:"omitempty,min=2,max=3"`
	// TopK overrides how many documents the analyzer sees.
	TopK int `json:"top_k" validate:"omitempty,min=1,max=50"`
}

type ProcessQueryResponse struct {
	Answer     string                          `json:"answer"`
	Citations  []schema.Citation               `json:"citations"`
	Confidence float64                         `json:"confidence"`
	Language   string                          `json:"language"`
	QueryType  schema.QueryType                `json:"query_type"`
	Sources    []schema.Source                 `json:"sources"`
	Metadata   schema.ResultMeta               `json:"metadata"`
	Stats      map[string]schema.StatsSnapshot `json:"stats"`
	Cached     bool                            `json:"cached"`
}

type SupportedLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type SupportedLanguagesResponse struct {
	Languages []SupportedLanguage `json:"languages"`
	Fallback  string              `json:"fallback"`
}

type AgentStatsResponse struct {
	Stats map[string]schema.StatsSnapshot `json:"stats"`
}
