package analyze

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

// noDocumentsAnalysis is the fixed short-circuit response when retrieval
// came back empty. No model call is made in that case.
const noDocumentsAnalysis = "No documents provided for analysis."

// hedgingPhrases each cost 0.1 confidence when present in the analysis.
// A phrase counts once no matter how often it appears.
var hedgingPhrases = []string{
	"not found in provided documents",
	"information not available",
	"unclear",
	"uncertain",
	"may be",
	"possibly",
}

// Result carries the analysis draft and its bookkeeping.
type Result struct {
	Analysis       string
	SourcesUsed    []string
	Confidence     float64
	CitationsCount int
}

// Analyzer reads the retrieved evidence and produces a cited draft plus a
// confidence estimate derived from citation density, source relevance and
// hedging language.
type Analyzer struct {
	caller          *agent.Caller
	maxContextChars int
	logger          *log.Logger
}

func NewAnalyzer(caller *agent.Caller, maxContextChars int, logger *log.Logger) *Analyzer {
	return &Analyzer{
		caller:          caller,
		maxContextChars: maxContextChars,
		logger:          logger,
	}
}

// Analyze answers the query from the documents, citing every factual claim.
func (a *Analyzer) Analyze(ctx context.Context, query string, documents []schema.Document, language string, queryType schema.QueryType) (*Result, error) {
	a.logger.Printf("[ANALYZER] Analyzing %d documents for query", len(documents))

	if len(documents) == 0 {
		return &Result{
			Analysis:    noDocumentsAnalysis,
			SourcesUsed: []string{},
			Confidence:  0.0,
		}, nil
	}

	prompt := a.buildPrompt(query, documents, language, queryType)

	result, err := a.caller.Call(ctx, []llm.Message{{Role: "user", Content: prompt}},
		llm.WithTemperature(0.3), // Lower for accuracy
		llm.WithMaxTokens(2000),
	)
	if err != nil {
		return nil, err
	}

	analysis := result.Text
	citations := citation.Extract(analysis)
	sourcesUsed := citation.DistinctIDs(analysis)

	confidence := estimateConfidence(analysis, len(citations), documents)

	a.logger.Printf("[ANALYZER] Analysis complete: %d citations, confidence=%.2f", len(citations), confidence)

	return &Result{
		Analysis:       analysis,
		SourcesUsed:    sourcesUsed,
		Confidence:     confidence,
		CitationsCount: len(citations),
	}, nil
}

func (a *Analyzer) buildPrompt(query string, documents []schema.Document, language string, queryType schema.QueryType) string {
	var prompt strings.Builder

	prompt.WriteString("<documents>\n")
	prompt.WriteString("CRITICAL: These documents are the ONLY data source. Do NOT use outside knowledge.\n\n")
	prompt.WriteString(buildDocContext(documents, a.maxContextChars))
	prompt.WriteString("\n</documents>\n\n")

	prompt.WriteString("<task_instructions>\n")
	prompt.WriteString("You are a careful analyst answering from the documents above.\n\n")
	prompt.WriteString("CITATION RULES (MUST FOLLOW):\n")
	prompt.WriteString("1. Cite EVERY factual claim with an inline marker: [Doc ID: <id>]\n")
	prompt.WriteString("2. Use the exact document ids shown above\n")
	prompt.WriteString("3. A claim supported by several documents may carry several markers\n")
	prompt.WriteString("4. If the documents do not contain the answer, state that explicitly\n\n")
	prompt.WriteString(fmt.Sprintf("QUERY TYPE: %s\n", queryType))
	prompt.WriteString("Structure the analysis to fit the query type.\n")
	prompt.WriteString("</task_instructions>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("Analysis:")

	if language != "en" {
		prompt.WriteString(fmt.Sprintf("\n\nIMPORTANT: Respond in %s.", language))
	}

	return prompt.String()
}

// buildDocContext renders "[Doc ID: x] text" blocks separated by blank
// lines, cutting off once the combined length reaches maxChars. Lengths are
// counted in runes so multilingual text never gets cut mid-character.
func buildDocContext(documents []schema.Document, maxChars int) string {
	var b strings.Builder
	used := 0

	for _, doc := range documents {
		block := []rune(fmt.Sprintf("[Doc ID: %s] %s", doc.ID, doc.Text))

		if used > 0 {
			if used+2 >= maxChars {
				break
			}
			b.WriteString("\n\n")
			used += 2
		}

		remaining := maxChars - used
		if len(block) > remaining {
			b.WriteString(string(block[:remaining]))
			break
		}
		b.WriteString(string(block))
		used += len(block)
	}

	return b.String()
}

// estimateConfidence scores the analysis: 0.5 base, up to +0.3 for
// citations, +0.2 weighted by mean document relevance, -0.1 per distinct
// hedging phrase, clamped to [0, 1].
func estimateConfidence(analysis string, citationCount int, documents []schema.Document) float64 {
	confidence := 0.5 // Base confidence

	// Factor 1: Citations (up to +0.3)
	if citationCount > 0 {
		bonus := float64(citationCount) * 0.1
		if bonus > 0.3 {
			bonus = 0.3
		}
		confidence += bonus
	}

	// Factor 2: Document relevance (up to +0.2)
	if len(documents) > 0 {
		sum := 0.0
		for _, doc := range documents {
			sum += doc.Score
		}
		confidence += sum / float64(len(documents)) * 0.2
	}

	// Factor 3: Hedging phrases (-0.1 each)
	lower := strings.ToLower(analysis)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			confidence -= 0.1
		}
	}

	if confidence < 0.0 {
		confidence = 0.0
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
