package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"multilingual-rag-be/pkg/llm"
	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/citation"
	"multilingual-rag-be/pkg/rag/schema"
)

const systemPrompt = `You are an answer validator. You check a generated answer against its source documents.

CHECK FOR:
1. HALLUCINATION: claims not supported by the source documents
2. CITATIONS: every factual claim carries a [Doc ID: <id>] marker pointing at a real source
3. CONSISTENCY: the answer does not contradict itself or the sources
4. COMPLETENESS: the answer actually addresses the query

RESPONSE FORMAT (JSON only):
{"valid": true, "confidence": 0.9, "issues": ["list of problems found, empty if none"]}`

var fencePattern = regexp.MustCompile("```json\\s*|\\s*```")

// uncertaintyPhrases are flagged when they appear in an answer shorter than
// 20 words. The threshold is tighter than the analyzer's hedging penalty on
// purpose: a long answer has room to explain its uncertainty.
var uncertaintyPhrases = []string{
	"not sure",
	"don't know",
	"cannot determine",
	"unclear",
}

// Result is the combined verdict of the model check and the automated
// citation checks.
type Result struct {
	Valid      bool
	Confidence float64
	Issues     []string
}

// verdict captures the model's structured response. Pointer fields
// distinguish an absent key from an explicit false/zero.
type verdict struct {
	Valid      *bool    `json:"valid"`
	Confidence *float64 `json:"confidence"`
	Issues     []string `json:"issues"`
}

// Validator checks generated answers for hallucinations, broken citations
// and inconsistency. It never returns an error: whatever goes wrong, the
// answer is passed through with valid=true and confidence 0.5 rather than
// blocking the user on a validation failure.
type Validator struct {
	caller          *agent.Caller
	maxContextChars int
	logger          *log.Logger
}

func NewValidator(caller *agent.Caller, maxContextChars int, logger *log.Logger) *Validator {
	return &Validator{
		caller:          caller,
		maxContextChars: maxContextChars,
		logger:          logger,
	}
}

// Validate runs the model-based check plus the automated checks and
// combines the two. Citation problems found by the automated checks force
// valid=false and cap confidence at 0.6 regardless of the model's verdict.
func (v *Validator) Validate(ctx context.Context, answer string, documents []schema.Document, query string) *Result {
	v.logger.Printf("[VALIDATOR] Validating answer for query: '%.50s...'", query)

	model, err := v.modelVerdict(ctx, answer, documents, query)
	if err != nil {
		v.logger.Printf("[VALIDATOR] Validation failed open: %v", err)
		return &Result{
			Valid:      true,
			Confidence: 0.5,
			Issues:     []string{fmt.Sprintf("Validation error: %v", err)},
		}
	}

	result := combine(model, automatedChecks(answer, documents))

	v.logger.Printf("[VALIDATOR] Validation complete: valid=%t, confidence=%.2f, issues=%d",
		result.Valid, result.Confidence, len(result.Issues))
	return result
}

func (v *Validator) modelVerdict(ctx context.Context, answer string, documents []schema.Document, query string) (*Result, error) {
	prompt := fmt.Sprintf(`Query: %s

Context (Source Documents):
%s

Generated Answer:
%s

Validate this answer according to the criteria in your system prompt.
Respond with ONLY a JSON object.`, query, buildDocContext(documents, v.maxContextChars), answer)

	result, err := v.caller.Call(ctx,
		[]llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(500),
		llm.WithJSONOutput(),
	)
	if err != nil {
		return nil, err
	}

	return v.parseVerdict(result.Text), nil
}

// parseVerdict decodes the model's JSON verdict. Markdown fences are
// stripped first, missing keys get permissive defaults, and an unparsable
// response degrades to a crude text scan.
func (v *Validator) parseVerdict(response string) *Result {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(response, ""))

	var parsed verdict
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		v.logger.Printf("[WARN] Failed to parse validation JSON: %v", err)

		lower := strings.ToLower(response)
		if strings.Contains(lower, "valid") && strings.Contains(lower, "false") {
			return &Result{
				Valid:      false,
				Confidence: 0.6,
				Issues:     []string{"JSON parsing failed, extracted from text"},
			}
		}
		return &Result{Valid: true, Confidence: 0.7, Issues: []string{}}
	}

	result := &Result{Valid: true, Confidence: 0.8, Issues: []string{}}
	if parsed.Valid != nil {
		result.Valid = *parsed.Valid
	}
	if parsed.Confidence != nil {
		result.Confidence = *parsed.Confidence
	}
	if parsed.Issues != nil {
		result.Issues = parsed.Issues
	}
	return result
}

// automatedChecks runs the deterministic checks that need no model call.
func automatedChecks(answer string, documents []schema.Document) []string {
	var issues []string

	citations := citation.Extract(answer)
	if len(citations) == 0 {
		issues = append(issues, "No citations found in answer")
	}

	docIDs := make(map[string]bool, len(documents))
	for _, doc := range documents {
		docIDs[doc.ID] = true
	}
	for _, c := range citations {
		if !docIDs[c.DocID] {
			issues = append(issues, fmt.Sprintf("Invalid citation: Doc ID '%s' not in sources", c.DocID))
		}
	}

	wordCount := len(strings.Fields(answer))
	if wordCount < 5 {
		issues = append(issues, "Answer is very short (< 5 words)")
	}

	lower := strings.ToLower(answer)
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lower, phrase) && wordCount < 20 {
			issues = append(issues, fmt.Sprintf("Contains uncertainty phrase without explanation: '%s'", phrase))
		}
	}

	return issues
}

func combine(model *Result, autoIssues []string) *Result {
	combined := &Result{
		Valid:      model.Valid,
		Confidence: model.Confidence,
		Issues:     append([]string{}, model.Issues...),
	}
	combined.Issues = append(combined.Issues, autoIssues...)

	for _, issue := range autoIssues {
		if strings.Contains(issue, "Invalid citation") || strings.Contains(issue, "No citations") {
			combined.Valid = false
			if combined.Confidence > 0.6 {
				combined.Confidence = 0.6
			}
			break
		}
	}

	return combined
}

// buildDocContext renders "[Doc ID: x] text" blocks separated by blank
// lines. A document that would push the combined length past maxChars is
// skipped whole.
func buildDocContext(documents []schema.Document, maxChars int) string {
	var parts []string
	length := 0

	for _, doc := range documents {
		block := fmt.Sprintf("[Doc ID: %s] %s", doc.ID, doc.Text)
		n := len([]rune(block))
		if length+n > maxChars {
			break
		}
		parts = append(parts, block)
		length += n
	}

	return strings.Join(parts, "\n\n")
}
