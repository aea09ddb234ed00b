package synthesize

import (
	"context"
	"fmt"
	"log"
	"strings"

	"multilingual-rag-be/pkg/llm"
	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/citation"
	"multilingual-rag-be/pkg/rag/schema"
)

const systemPrompt = `You are an answer synthesizer. You turn an evidence analysis into the final answer shown to the user.

RULES:
1. Use ONLY the analysis provided. Do not add outside knowledge.
2. Preserve EVERY citation marker from the analysis, formatted exactly as [Doc ID: <id>].
3. If sources disagree, present both sides and note the disagreement.
4. Be clear and direct. No meta commentary about the analysis or these instructions.
5. Match the formatting to the query type you are given.`

var divider = strings.Repeat("=", 60)

// Result is the synthesized answer with citations re-extracted from the
// final text. The model may drop or rephrase markers during synthesis, so
// the analysis citations are never carried over as-is.
type Result struct {
	Answer    string
	Citations []schema.Citation
	Structure string
}

// Synthesizer combines the analyzer's cited draft into the final answer.
type Synthesizer struct {
	caller *agent.Caller
	logger *log.Logger
}

func NewSynthesizer(caller *agent.Caller, logger *log.Logger) *Synthesizer {
	return &Synthesizer{caller: caller, logger: logger}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query, analysis, language string, queryType schema.QueryType) (*Result, error) {
	s.logger.Printf("[SYNTHESIZER] Synthesizing answer for query type: %s", queryType)

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(query, analysis, language, queryType)},
	}

	result, err := s.caller.Call(ctx, messages,
		llm.WithTemperature(0.2), // Low for consistency
		llm.WithMaxTokens(1500),
	)
	if err != nil {
		return nil, err
	}

	answer := result.Text
	citations := citation.Extract(answer)
	structure := determineStructure(answer, queryType)

	s.logger.Printf("[SYNTHESIZER] Synthesis complete: %d citations, structure=%s", len(citations), structure)

	return &Result{
		Answer:    answer,
		Citations: citations,
		Structure: structure,
	}, nil
}

func buildPrompt(query, analysis, language string, queryType schema.QueryType) string {
	parts := []string{
		fmt.Sprintf("Original Query: %s", query),
		fmt.Sprintf("Query Type: %s", queryType),
		"",
		"Analysis to Synthesize:",
		divider,
		analysis,
		divider,
		"",
		"Your Task:",
		"1. Combine the analysis into a coherent answer",
		"2. Maintain ALL citations from the analysis",
		"3. Resolve any contradictions (note disagreements)",
		"4. Structure appropriately for the query type",
	}

	switch queryType {
	case schema.QueryTypeComparison:
		parts = append(parts, "5. Use comparison structure (similarities, differences)")
	case schema.QueryTypeSummarization:
		parts = append(parts, "5. Provide structured summary with key points")
	case schema.QueryTypeAnalysis:
		parts = append(parts, "5. Provide reasoning and implications")
	default:
		parts = append(parts, "5. Start with direct answer, then details")
	}

	if language != "en" {
		parts = append(parts, fmt.Sprintf("\nIMPORTANT: Respond in %s.", language))
	}

	return strings.Join(parts, "\n")
}

// determineStructure tags the answer shape from its word count and the
// query type. Short answers are always "direct" regardless of type.
func determineStructure(answer string, queryType schema.QueryType) string {
	wordCount := len(strings.Fields(answer))

	switch {
	case wordCount < 30:
		return "direct"
	case queryType == schema.QueryTypeComparison:
		return "comparison"
	case queryType == schema.QueryTypeSummarization:
		return "summary"
	case wordCount > 100:
		return "detailed"
	default:
		return "standard"
	}
}
