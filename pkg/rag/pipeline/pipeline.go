package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/analyze"
	"multilingual-rag-be/pkg/rag/classify"
	"multilingual-rag-be/pkg/rag/detect"
	"multilingual-rag-be/pkg/rag/plan"
	"multilingual-rag-be/pkg/rag/retrieve"
	"multilingual-rag-be/pkg/rag/schema"
	"multilingual-rag-be/pkg/rag/synthesize"
	"multilingual-rag-be/pkg/rag/validate"
)

// Config bundles the tunables of a pipeline run.
type Config struct {
	NumQueries       int // search query variants the planner produces
	TopK             int // documents handed to the analyzer
	Rerank           bool
	Retrieval        retrieve.Config
	AnalyzerContext  int // max context runes for the analyzer
	ValidatorContext int // max context runes for the validator
	FallbackLanguage string
}

func DefaultConfig() Config {
	return Config{
		NumQueries:       3,
		TopK:             5,
		Rerank:           true,
		Retrieval:        retrieve.Config{TopKRetrieval: 25, TopKRerank: 5, MinScore: 0.7},
		AnalyzerContext:  6000,
		ValidatorContext: 3000,
		FallbackLanguage: "en",
	}
}

// Callers groups the per-stage LLM callers. Each stage keeps its own
// pricing and statistics, so cheap and expensive models can be mixed.
type Callers struct {
	Router      *agent.Caller
	Planner     *agent.Caller
	Analyzer    *agent.Caller
	Synthesizer *agent.Caller
	Validator   *agent.Caller
}

// StageError tags a failure with the pipeline stage that produced it.
// A failed query surfaces exactly one of these; no partial answer is
// ever returned.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline orchestrates the seven-stage query flow
// Detect → Classify → Plan → Retrieve → Analyze → Synthesize → Validate.
// Control flow is strictly linear and single-pass: no stage loops back,
// no stage is skipped.
type Pipeline struct {
	config      Config
	detector    *detect.Detector
	classifier  *classify.Classifier
	planner     *plan.Planner
	retriever   *retrieve.Retriever
	analyzer    *analyze.Analyzer
	synthesizer *synthesize.Synthesizer
	validator   *validate.Validator

	// Cost and stats are reported over these five, in this order.
	callers []*agent.Caller

	logger *log.Logger
}

func NewPipeline(config Config, callers Callers, searcher retrieve.Searcher, logger *log.Logger) *Pipeline {
	return &Pipeline{
		config:      config,
		detector:    detect.NewDetector(logger),
		classifier:  classify.NewClassifier(callers.Router, logger),
		planner:     plan.NewPlanner(callers.Planner, logger),
		retriever:   retrieve.NewRetriever(searcher, config.Retrieval, logger),
		analyzer:    analyze.NewAnalyzer(callers.Analyzer, config.AnalyzerContext, logger),
		synthesizer: synthesize.NewSynthesizer(callers.Synthesizer, logger),
		validator:   validate.NewValidator(callers.Validator, config.ValidatorContext, logger),
		callers: []*agent.Caller{
			callers.Router,
			callers.Planner,
			callers.Analyzer,
			callers.Synthesizer,
			callers.Validator,
		},
		logger: logger,
	}
}

// QueryOption overrides one pipeline tunable for a single query.
type QueryOption func(*queryOverrides)

type queryOverrides struct {
	language string
	topK     int
}

// WithLanguage pins the query language, skipping detection. The code is
// trusted as-is and carries full confidence.
func WithLanguage(code string) QueryOption {
	return func(o *queryOverrides) { o.language = code }
}

// WithTopK overrides how many documents reach the analyzer for this query.
// Non-positive values are ignored.
func WithTopK(k int) QueryOption {
	return func(o *queryOverrides) {
		if k > 0 {
			o.topK = k
		}
	}
}

// ProcessQuery runs one query through the whole pipeline and assembles the
// final result. Any unrecovered stage failure aborts the query with a
// StageError; only the validator is allowed to fail open.
func (p *Pipeline) ProcessQuery(ctx context.Context, query, userID string, filters map[string]interface{}, opts ...QueryOption) (*schema.Result, error) {
	p.logger.Printf("[PIPELINE] Processing query for user %s: %s", userID, truncate(query, 50))

	var overrides queryOverrides
	for _, opt := range opts {
		opt(&overrides)
	}

	start := time.Now()
	state := schema.NewState(query, userID, filters)

	// ═══════════════════════════════════════════════════════════════
	// STAGE 1: LANGUAGE DETECTION (local, never fails)
	// ═══════════════════════════════════════════════════════════════
	p.logger.Printf("[STAGE 1] Detecting language...")

	if overrides.language != "" {
		state.Language, state.LanguageConfidence = overrides.language, 1.0
		p.logger.Printf("[STAGE 1] Language pinned by caller: %s", state.Language)
	} else {
		state.Language, state.LanguageConfidence = p.detector.Detect(state.Query, p.config.FallbackLanguage)
		p.logger.Printf("[STAGE 1] Language: %s (confidence: %.2f)", state.Language, state.LanguageConfidence)
	}

	// ═══════════════════════════════════════════════════════════════
	// STAGE 2: QUERY CLASSIFICATION
	// ═══════════════════════════════════════════════════════════════
	p.logger.Printf("[STAGE 2] Classifying query...")

	queryType, err := p.classifier.Classify(ctx, state.Query)
	if err != nil {
		p.logger.Printf("[ERROR] Classification failed: %v", err)
		return nil, &StageError{Stage: "router", Err: err}
	}
	state.QueryType = queryType

	// ═══════════════════════════════════════════════════════════════
	// STAGE 3: QUERY PLANNING
	// ═══════════════════════════════════════════════════════════════
	p.logger.Printf("[STAGE 3] Planning search queries...")

	searchQueries, err := p.planner.Plan(ctx, state.Query, state.QueryType, p.config.NumQueries)
	if err != nil {
		p.logger.Printf("[ERROR] Planning failed: %v", err)
		return nil, &StageError{Stage: "planner", Err: err}
	}
	state.SearchQueries = searchQueries

	// ═══════════════════════════════════════════════════════════════
	// STAGE 4: RETRIEVAL
	// ═══════════════════════════════════════════════════════════════
	p.logger.Printf("[STAGE 4] Retrieving documents...")

	topK := p.config.TopK
	if overrides.topK > 0 {
		topK = overrides.topK
	}
	retrieved, err := p.retriever.Retrieve(ctx, state.SearchQueries, state.Filters, topK, p.config.Rerank)
	if err != nil {
		p.logger.Printf("[ERROR] Retrieval failed: %v", err)
		return nil, &StageError{Stage: "retriever", Err: err}
	}
	state.Documents = retrieved.Documents
	state.TotalRetrieved = retrieved.TotalRetrieved

	// ═══════════════════════════════════════════════════════════════
	// STAGE 5: EVIDENCE ANALYSIS
	// ═══════════════════════════════════════════════════════════════
	p.logger.Printf("[STAGE 5] Analyzing %d documents...", len(state.Documents))

	analysis, err := p.analyzer.Analyze(ctx, state.Query, state.Documents, state.Language, state.QueryType)
	if err != nil {
		p.logger.Printf("[ERROR] Analysis failed: %v", err)
		return nil, &StageError{Stage: "analyzer", Err: err}
	}
	state.Analysis = analysis.Analysis
	state.SourcesUsed = analysis.SourcesUsed
	state.AnalysisConfidence = analysis.Confidence

	// ═══════════════════════════════════════════════════════════════
	// STAGE 6: ANSWER SYNTHESIS
	// ═══════════════════════════════════════════════════════════════
	p.logger.Printf("[STAGE 6] Synthesizing answer...")

	synthesized, err := p.synthesizer.Synthesize(ctx, state.Query, state.Analysis, state.Language, state.QueryType)
	if err != nil {
		p.logger.Printf("[ERROR] Synthesis failed: %v", err)
		return nil, &StageError{Stage: "synthesizer", Err: err}
	}
	state.Answer = synthesized.Answer
	state.Citations = synthesized.Citations

	// ═══════════════════════════════════════════════════════════════
	// STAGE 7: VALIDATION (fails open, never aborts the query)
	// ═══════════════════════════════════════════════════════════════
	p.logger.Printf("[STAGE 7] Validating answer...")

	verdict := p.validator.Validate(ctx, state.Answer, state.Documents, state.Query)
	state.ValidationValid = verdict.Valid
	state.ValidationConfidence = verdict.Confidence
	state.ValidationIssues = verdict.Issues

	processingTime := time.Since(start).Seconds()
	result := p.buildResult(state, processingTime)

	p.logger.Printf("[PIPELINE] Query processed in %.2fs (cost: $%.4f, confidence: %.2f)",
		processingTime, result.Metadata.TotalCost, result.Confidence)

	return result, nil
}

func (p *Pipeline) buildResult(state *schema.State, processingTime float64) *schema.Result {
	sources := make([]schema.Source, len(state.Documents))
	for i, doc := range state.Documents {
		sources[i] = schema.Source{
			ID:       doc.ID,
			Text:     preview(doc.Text, 200),
			Score:    doc.Score,
			Metadata: doc.Metadata,
		}
	}

	return &schema.Result{
		Answer:     state.Answer,
		Citations:  state.Citations,
		Confidence: overallConfidence(state),
		Language:   state.Language,
		QueryType:  state.QueryType,
		Sources:    sources,
		Metadata: schema.ResultMeta{
			ProcessingTime:    processingTime,
			TotalCost:         p.totalCost(),
			DocumentsAnalyzed: len(state.Documents),
			ValidationValid:   state.ValidationValid,
			ValidationIssues:  state.ValidationIssues,
		},
		Stats: p.Stats(),
	}
}

// overallConfidence weights language detection 0.2, analysis 0.4 and
// validation 0.4. Weights are fixed and never renormalized when a
// constituent confidence is low.
func overallConfidence(state *schema.State) float64 {
	return 0.2*state.LanguageConfidence + 0.4*state.AnalysisConfidence + 0.4*state.ValidationConfidence
}

// totalCost sums the accumulated cost of every LLM-calling stage at this
// moment. Stats accumulate across queries until ResetStats, so the figure
// covers everything since the last reset.
func (p *Pipeline) totalCost() float64 {
	total := 0.0
	for _, c := range p.callers {
		total += c.Stats().Snapshot().TotalCost
	}
	return total
}

// Stats returns a snapshot of every LLM-calling stage's counters, keyed by
// stage name.
func (p *Pipeline) Stats() map[string]schema.StatsSnapshot {
	stats := make(map[string]schema.StatsSnapshot, len(p.callers))
	for _, c := range p.callers {
		stats[c.Name()] = c.Stats().Snapshot()
	}
	return stats
}

// ResetStats zeroes the counters of every LLM-calling stage.
func (p *Pipeline) ResetStats() {
	for _, c := range p.callers {
		c.Stats().Reset()
	}
	p.logger.Printf("[PIPELINE] All agent stats reset")
}

// preview caps text at limit runes. The ellipsis is appended even to
// short texts so previews read uniformly.
func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
