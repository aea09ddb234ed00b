package synthesize

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"multilingual-rag-be/pkg/llm"
	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/schema"
)

type stubProvider struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	if len(history) > 0 {
		s.lastPrompt = history[len(history)-1].Content
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Result{Text: s.response, PromptTokens: 150, CompletionTokens: 60}, nil
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Result, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestSynthesizer(provider llm.LLMProvider) *Synthesizer {
	logger := log.New(io.Discard, "", 0)
	return NewSynthesizer(agent.NewCaller("synthesizer", provider, agent.Pricing{}, logger), logger)
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestDetermineStructure(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		queryType schema.QueryType
		want      string
	}{
		{"short answer is direct regardless of type", words(5), schema.QueryTypeComparison, "direct"},
		{"29 words is still direct", words(29), schema.QueryTypeSimpleQA, "direct"},
		{"comparison at 30 words", words(30), schema.QueryTypeComparison, "comparison"},
		{"summarization", words(50), schema.QueryTypeSummarization, "summary"},
		{"long answer is detailed", words(101), schema.QueryTypeSimpleQA, "detailed"},
		{"100 words stays standard", words(100), schema.QueryTypeSimpleQA, "standard"},
		{"mid-length default", words(60), schema.QueryTypeAnalysis, "standard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := determineStructure(tt.answer, tt.queryType); got != tt.want {
				t.Errorf("determineStructure() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesizeReExtractsCitations(t *testing.T) {
	// The stub drops one of the analysis citations, as a real model might.
	stub := &stubProvider{response: "New Delhi is the capital of India [Doc ID: doc1]."}
	s := newTestSynthesizer(stub)

	analysis := "The capital is New Delhi [Doc ID: doc1]. Confirmed in Hindi [Doc ID: doc2]."
	got, err := s.Synthesize(context.Background(), "What is the capital of India?", analysis, "en", schema.QueryTypeSimpleQA)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(got.Citations) != 1 {
		t.Fatalf("Citations = %d, want 1 (from the final answer, not the analysis)", len(got.Citations))
	}
	if got.Citations[0].DocID != "doc1" {
		t.Errorf("Citations[0].DocID = %q, want doc1", got.Citations[0].DocID)
	}
	if got.Structure != "direct" {
		t.Errorf("Structure = %q, want direct", got.Structure)
	}
}

func TestSynthesizePromptContents(t *testing.T) {
	stub := &stubProvider{response: "answer"}
	s := newTestSynthesizer(stub)

	analysis := "iPhone uses iOS [Doc ID: 1] while Samsung uses Android [Doc ID: 2]."
	if _, err := s.Synthesize(context.Background(), "Compare iPhone vs Samsung", analysis, "ta", schema.QueryTypeComparison); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	for _, want := range []string{
		"Original Query: Compare iPhone vs Samsung",
		"Query Type: COMPARISON",
		analysis,
		"5. Use comparison structure (similarities, differences)",
		"IMPORTANT: Respond in ta.",
	} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, stub.lastPrompt)
		}
	}

	if _, err := s.Synthesize(context.Background(), "What is AI?", "AI is... [Doc ID: 1]", "en", schema.QueryTypeSimpleQA); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !strings.Contains(stub.lastPrompt, "5. Start with direct answer, then details") {
		t.Errorf("prompt missing default structure instruction:\n%s", stub.lastPrompt)
	}
	if strings.Contains(stub.lastPrompt, "IMPORTANT: Respond in") {
		t.Errorf("english query should not carry a language instruction:\n%s", stub.lastPrompt)
	}
}

func TestSynthesizeProviderError(t *testing.T) {
	s := newTestSynthesizer(&stubProvider{err: errors.New("model unavailable")})

	_, err := s.Synthesize(context.Background(), "anything", "analysis", "en", schema.QueryTypeSimpleQA)
	if err == nil {
		t.Fatal("Synthesize() expected error, got nil")
	}
}
