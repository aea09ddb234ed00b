package schema

// ResultMeta carries per-query processing metadata.
type ResultMeta struct {
	ProcessingTime    float64  `json:"processing_time"`
	TotalCost         float64  `json:"total_cost"`
	DocumentsAnalyzed int      `json:"documents_analyzed"`
	ValidationValid   bool     `json:"validation_valid"`
	ValidationIssues  []string `json:"validation_issues"`
}

// StatsSnapshot is a point-in-time copy of one agent's counters.
type StatsSnapshot struct {
	Calls       int     `json:"calls"`
	TotalTokens int     `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
	TotalTime   float64 `json:"total_time"`
	Errors      int     `json:"errors"`
}

// Result is what ProcessQuery hands back to the transport layer.
type Result struct {
	Answer     string                   `json:"answer"`
	Citations  []Citation               `json:"citations"`
	Confidence float64                  `json:"confidence"`
	Language   string                   `json:"language"`
	QueryType  QueryType                `json:"query_type"`
	Sources    []Source                 `json:"sources"`
	Metadata   ResultMeta               `json:"metadata"`
	Stats      map[string]StatsSnapshot `json:"stats"`
}
