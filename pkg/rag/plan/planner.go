package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"multilingual-rag-be/pkg/llm"
	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/schema"
)

const systemPrompt = `You are a search query planner. Given a user query, produce alternate search queries that together cover the information need better than the original alone.

RULES:
1. Each query must be self-contained and directly searchable
2. Vary the wording: synonyms, reformulations, sub-questions
3. For COMPARISON queries, write one query per compared item
4. For MULTI_HOP queries, decompose into the individual reasoning steps
5. Keep each query under 20 words
6. Write the queries in the SAME language as the original query

RESPONSE FORMAT:
Respond with ONLY valid JSON:
{"queries": ["first search query", "second search query", "third search query"]}`

var listMarker = regexp.MustCompile(`^(\d+[.)]\s*|[-*]\s+)`)

// Planner expands the original query into search-query variants. Duplicate
// or near-duplicate variants are fine here; retrieval fusion absorbs them.
type Planner struct {
	caller *agent.Caller
	logger *log.Logger
}

func NewPlanner(caller *agent.Caller, logger *log.Logger) *Planner {
	return &Planner{
		caller: caller,
		logger: logger,
	}
}

// Plan generates up to numQueries search queries for the retriever.
func (p *Planner) Plan(ctx context.Context, query string, queryType schema.QueryType, numQueries int) ([]string, error) {
	user := fmt.Sprintf("Original query: %s\nQuery type: %s\n\nGenerate exactly %d search queries.", query, queryType, numQueries)

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}

	result, err := p.caller.Call(ctx, messages,
		llm.WithTemperature(0.7), // Higher temperature for varied phrasings
		llm.WithMaxTokens(500),
	)
	if err != nil {
		return nil, err
	}

	queries := parseQueries(result.Text, numQueries)
	if len(queries) == 0 {
		p.logger.Printf("[WARN] Planner produced no usable queries, falling back to the original query")
		queries = []string{query}
	}

	p.logger.Printf("[PLANNER] Generated %d search queries", len(queries))
	return queries, nil
}

// parseQueries pulls search queries out of the model response: a JSON object
// first, then plain lines with list markers stripped.
func parseQueries(text string, limit int) []string {
	if j := extractJSON(text); j != "" {
		var parsed struct {
			Queries []string `json:"queries"`
		}
		if err := json.Unmarshal([]byte(j), &parsed); err == nil {
			queries := make([]string, 0, limit)
			for _, q := range parsed.Queries {
				q = strings.TrimSpace(q)
				if q == "" {
					continue
				}
				queries = append(queries, q)
				if len(queries) == limit {
					break
				}
			}
			if len(queries) > 0 {
				return queries
			}
		}
	}

	var queries []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		line = strings.Trim(line, `"`)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		queries = append(queries, line)
		if len(queries) == limit {
			break
		}
	}
	return queries
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
