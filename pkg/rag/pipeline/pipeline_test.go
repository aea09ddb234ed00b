package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"strings"
	"sync"
	"testing"

	"multilingual-rag-be/pkg/llm"
	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/schema"
)

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Result{Text: s.response, PromptTokens: 100, CompletionTokens: 20}, nil
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Result, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// fakeSearcher serves the same corpus for every search query.
type fakeSearcher struct {
	mu         sync.Mutex
	docs       []schema.Document
	err        error
	calls      int
	gotFilters map[string]interface{}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, topK int, filters map[string]interface{}, minScore float64) ([]schema.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFilters = filters
	if f.err != nil {
		return nil, f.err
	}
	out := make([]schema.Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

type harness struct {
	router      *stubProvider
	planner     *stubProvider
	analyzer    *stubProvider
	synthesizer *stubProvider
	validator   *stubProvider
	searcher    *fakeSearcher
	pipeline    *Pipeline
}

func newHarness() *harness {
	logger := log.New(io.Discard, "", 0)

	h := &harness{
		router:      &stubProvider{response: "SIMPLE_QA"},
		planner:     &stubProvider{response: `{"queries": ["What is the capital of India?", "capital city of India", "India capital New Delhi"]}`},
		analyzer:    &stubProvider{response: "New Delhi is the capital of India [Doc ID: doc1]. The Hindi source confirms it [Doc ID: doc2]."},
		synthesizer: &stubProvider{response: "New Delhi is the capital of India [Doc ID: doc1] [Doc ID: doc2]."},
		validator:   &stubProvider{response: `{"valid": true, "confidence": 0.9, "issues": []}`},
		searcher: &fakeSearcher{docs: []schema.Document{
			{ID: "doc1", Text: "New Delhi is the capital of India.", Score: 0.95, Metadata: map[string]interface{}{}},
			{ID: "doc2", Text: "भारत की राजधानी नई दिल्ली है।", Score: 0.92, Metadata: map[string]interface{}{}},
		}},
	}

	pricing := agent.Pricing{InputPer1K: 0.001, OutputPer1K: 0.002}
	callers := Callers{
		Router:      agent.NewCaller("router", h.router, pricing, logger),
		Planner:     agent.NewCaller("planner", h.planner, pricing, logger),
		Analyzer:    agent.NewCaller("analyzer", h.analyzer, pricing, logger),
		Synthesizer: agent.NewCaller("synthesizer", h.synthesizer, pricing, logger),
		Validator:   agent.NewCaller("validator", h.validator, pricing, logger),
	}
	h.pipeline = NewPipeline(DefaultConfig(), callers, h.searcher, logger)
	return h
}

func TestProcessQueryEndToEnd(t *testing.T) {
	h := newHarness()

	result, err := h.pipeline.ProcessQuery(context.Background(), "What is the capital of India?", "user123", nil)
	if err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}

	if result.Answer != h.synthesizer.response {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Citations) != 2 || result.Citations[0].DocID != "doc1" || result.Citations[1].DocID != "doc2" {
		t.Errorf("Citations = %+v, want doc1 then doc2", result.Citations)
	}
	if result.Language != "en" {
		t.Errorf("Language = %q, want en", result.Language)
	}
	if result.QueryType != schema.QueryTypeSimpleQA {
		t.Errorf("QueryType = %v, want SIMPLE_QA", result.QueryType)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("Confidence = %v, want in (0, 1]", result.Confidence)
	}

	if result.Metadata.DocumentsAnalyzed != 2 {
		t.Errorf("DocumentsAnalyzed = %d, want 2", result.Metadata.DocumentsAnalyzed)
	}
	if !result.Metadata.ValidationValid {
		t.Errorf("ValidationValid = false, issues: %v", result.Metadata.ValidationIssues)
	}
	if result.Metadata.TotalCost <= 0 {
		t.Errorf("TotalCost = %v, want > 0", result.Metadata.TotalCost)
	}

	if len(result.Sources) != 2 {
		t.Fatalf("Sources = %d, want 2", len(result.Sources))
	}
	if result.Sources[0].ID != "doc1" {
		t.Errorf("Sources[0].ID = %q, want doc1 (highest score first)", result.Sources[0].ID)
	}
	for _, src := range result.Sources {
		if !strings.HasSuffix(src.Text, "...") {
			t.Errorf("source preview %q missing ellipsis", src.Text)
		}
	}

	// One search per planned query variant.
	if h.searcher.calls != 3 {
		t.Errorf("searcher calls = %d, want 3", h.searcher.calls)
	}
	if h.searcher.gotFilters["user_id"] != "user123" {
		t.Errorf("filters = %v, want default user scope", h.searcher.gotFilters)
	}

	wantCalls := map[string]int{"router": 1, "planner": 1, "analyzer": 1, "synthesizer": 1, "validator": 1}
	if len(result.Stats) != len(wantCalls) {
		t.Fatalf("Stats keys = %v, want 5 stages", result.Stats)
	}
	for name, calls := range wantCalls {
		if result.Stats[name].Calls != calls {
			t.Errorf("Stats[%s].Calls = %d, want %d", name, result.Stats[name].Calls, calls)
		}
	}
}

func TestProcessQueryStageErrors(t *testing.T) {
	boom := errors.New("model unavailable")

	tests := []struct {
		name      string
		breakIt   func(h *harness)
		wantStage string
	}{
		{"classifier failure", func(h *harness) { h.router.err = boom }, "router"},
		{"planner failure", func(h *harness) { h.planner.err = boom }, "planner"},
		{"search failure", func(h *harness) { h.searcher.err = boom }, "retriever"},
		{"analyzer failure", func(h *harness) { h.analyzer.err = boom }, "analyzer"},
		{"synthesizer failure", func(h *harness) { h.synthesizer.err = boom }, "synthesizer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.breakIt(h)

			result, err := h.pipeline.ProcessQuery(context.Background(), "anything", "user123", nil)
			if result != nil {
				t.Errorf("result = %+v, want nil on stage failure", result)
			}

			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("error = %v, want StageError", err)
			}
			if stageErr.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", stageErr.Stage, tt.wantStage)
			}
			if !errors.Is(err, boom) {
				t.Errorf("error chain lost the cause: %v", err)
			}
		})
	}
}

func TestProcessQueryValidatorFailsOpen(t *testing.T) {
	h := newHarness()
	h.validator.err = errors.New("model unavailable")

	result, err := h.pipeline.ProcessQuery(context.Background(), "What is the capital of India?", "user123", nil)
	if err != nil {
		t.Fatalf("ProcessQuery() error = %v, validator must never abort the query", err)
	}
	if !result.Metadata.ValidationValid {
		t.Error("ValidationValid = false, want fail-open true")
	}
	if len(result.Metadata.ValidationIssues) != 1 || !strings.HasPrefix(result.Metadata.ValidationIssues[0], "Validation error: ") {
		t.Errorf("ValidationIssues = %v", result.Metadata.ValidationIssues)
	}
}

func TestProcessQueryEmptyCorpus(t *testing.T) {
	h := newHarness()
	h.searcher.docs = nil

	result, err := h.pipeline.ProcessQuery(context.Background(), "What is the capital of India?", "user123", nil)
	if err != nil {
		t.Fatalf("ProcessQuery() error = %v, empty retrieval is not an error", err)
	}
	if h.analyzer.calls != 0 {
		t.Errorf("analyzer called %d times, want 0 on empty corpus", h.analyzer.calls)
	}
	if h.synthesizer.calls != 1 {
		t.Errorf("synthesizer calls = %d, want 1", h.synthesizer.calls)
	}
	if result.Metadata.DocumentsAnalyzed != 0 {
		t.Errorf("DocumentsAnalyzed = %d, want 0", result.Metadata.DocumentsAnalyzed)
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want none", result.Sources)
	}
}

func TestStatsAccumulateAndReset(t *testing.T) {
	h := newHarness()

	if _, err := h.pipeline.ProcessQuery(context.Background(), "What is the capital of India?", "user123", nil); err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}
	if _, err := h.pipeline.ProcessQuery(context.Background(), "What is the capital of India?", "user123", nil); err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}

	stats := h.pipeline.Stats()
	if stats["router"].Calls != 2 {
		t.Errorf("router calls = %d, want 2 (stats accumulate across queries)", stats["router"].Calls)
	}

	h.pipeline.ResetStats()
	for name, snap := range h.pipeline.Stats() {
		if snap.Calls != 0 || snap.TotalTokens != 0 || snap.TotalCost != 0 {
			t.Errorf("Stats[%s] = %+v after reset, want zeroes", name, snap)
		}
	}
}

func TestOverallConfidence(t *testing.T) {
	state := &schema.State{
		LanguageConfidence:   1.0,
		AnalysisConfidence:   0.5,
		ValidationConfidence: 0.8,
	}

	want := 0.2*1.0 + 0.4*0.5 + 0.4*0.8
	if got := overallConfidence(state); math.Abs(got-want) > 1e-9 {
		t.Errorf("overallConfidence() = %v, want %v", got, want)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("short", 200); got != "short..." {
		t.Errorf("preview() = %q, want ellipsis on short text too", got)
	}

	long := strings.Repeat("क", 250)
	got := preview(long, 200)
	if len([]rune(got)) != 203 {
		t.Errorf("preview length = %d runes, want 203", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("preview %q missing ellipsis", got)
	}
}
