package validate

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
	response string
	err      error
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Result{Text: s.response, PromptTokens: 120, CompletionTokens: 40}, nil
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Result, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestValidator(provider llm.LLMProvider) *Validator {
	logger := log.New(io.Discard, "", 0)
	return NewValidator(agent.NewCaller("validator", provider, agent.Pricing{}, logger), 3000, logger)
}

func testDocs() []schema.Document {
	return []schema.Document{
		{ID: "doc1", Text: "India's capital is New Delhi.", Score: 0.95},
		{ID: "doc2", Text: "Mumbai is the largest city.", Score: 0.85},
	}
}

func TestParseVerdict(t *testing.T) {
	v := newTestValidator(&stubProvider{})

	tests := []struct {
		name           string
		response       string
		wantValid      bool
		wantConfidence float64
		wantIssues     []string
	}{
		{
			name:           "clean json",
			response:       `{"valid": true, "confidence": 0.9, "issues": []}`,
			wantValid:      true,
			wantConfidence: 0.9,
			wantIssues:     []string{},
		},
		{
			name:           "markdown fenced json",
			response:       "```json\n{\"valid\": false, \"confidence\": 0.4, \"issues\": [\"unsupported claim\"]}\n```",
			wantValid:      false,
			wantConfidence: 0.4,
			wantIssues:     []string{"unsupported claim"},
		},
		{
			name:           "missing keys get defaults",
			response:       `{}`,
			wantValid:      true,
			wantConfidence: 0.8,
			wantIssues:     []string{},
		},
		{
			name:           "unparsable but mentions valid false",
			response:       "The answer is valid: false because it hallucinates.",
			wantValid:      false,
			wantConfidence: 0.6,
			wantIssues:     []string{"JSON parsing failed, extracted from text"},
		},
		{
			name:           "unparsable garbage assumes valid",
			response:       "I could not evaluate this.",
			wantValid:      true,
			wantConfidence: 0.7,
			wantIssues:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.parseVerdict(tt.response)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if len(got.Issues) != len(tt.wantIssues) {
				t.Fatalf("Issues = %v, want %v", got.Issues, tt.wantIssues)
			}
			for i := range tt.wantIssues {
				if got.Issues[i] != tt.wantIssues[i] {
					t.Errorf("Issues[%d] = %q, want %q", i, got.Issues[i], tt.wantIssues[i])
				}
			}
		})
	}
}

func TestAutomatedChecks(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{
			name:   "well formed answer passes",
			answer: "India's capital is New Delhi [Doc ID: doc1].",
			want:   nil,
		},
		{
			name:   "missing citations flagged",
			answer: "India's capital is New Delhi, everyone knows that much.",
			want:   []string{"No citations found in answer"},
		},
		{
			name:   "unknown doc id flagged",
			answer: "India's capital is New Delhi [Doc ID: doc999].",
			want:   []string{"Invalid citation: Doc ID 'doc999' not in sources"},
		},
		{
			name:   "short answer flagged",
			answer: "Delhi [Doc ID: doc1]",
			want:   []string{"Answer is very short (< 5 words)"},
		},
		{
			name:   "uncertainty phrase in short answer flagged",
			answer: "I'm not sure about this [Doc ID: doc1].",
			want:   []string{"Contains uncertainty phrase without explanation: 'not sure'"},
		},
		{
			name: "uncertainty phrase in long answer tolerated",
			answer: "I'm not sure the census counts agree, because doc1 reports the administrative " +
				"boundary while doc2 reports the metro area, so both totals can be right [Doc ID: doc1].",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := automatedChecks(tt.answer, testDocs())
			if len(got) != len(tt.want) {
				t.Fatalf("automatedChecks() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("issue[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCombine(t *testing.T) {
	t.Run("citation issue overrides model verdict", func(t *testing.T) {
		model := &Result{Valid: true, Confidence: 0.9, Issues: []string{}}
		got := combine(model, []string{"Invalid citation: Doc ID 'x' not in sources"})
		if got.Valid {
			t.Error("Valid = true, want false")
		}
		if got.Confidence != 0.6 {
			t.Errorf("Confidence = %v, want 0.6", got.Confidence)
		}
	})

	t.Run("confidence capped even when model already said invalid", func(t *testing.T) {
		model := &Result{Valid: false, Confidence: 0.9, Issues: []string{"hallucination"}}
		got := combine(model, []string{"No citations found in answer"})
		if got.Valid {
			t.Error("Valid = true, want false")
		}
		if got.Confidence != 0.6 {
			t.Errorf("Confidence = %v, want 0.6", got.Confidence)
		}
		if len(got.Issues) != 2 {
			t.Errorf("Issues = %v, want model issue plus automated issue", got.Issues)
		}
	})

	t.Run("non-critical issues keep model verdict", func(t *testing.T) {
		model := &Result{Valid: true, Confidence: 0.9, Issues: []string{}}
		got := combine(model, []string{"Answer is very short (< 5 words)"})
		if !got.Valid {
			t.Error("Valid = false, want true")
		}
		if got.Confidence != 0.9 {
			t.Errorf("Confidence = %v, want 0.9", got.Confidence)
		}
		if len(got.Issues) != 1 {
			t.Errorf("Issues = %v, want the automated issue appended", got.Issues)
		}
	})
}

func TestValidateHappyPath(t *testing.T) {
	stub := &stubProvider{response: `{"valid": true, "confidence": 0.9, "issues": []}`}
	v := newTestValidator(stub)

	got := v.Validate(context.Background(), "India's capital is New Delhi [Doc ID: doc1].", testDocs(), "What is India's capital?")
	if !got.Valid {
		t.Errorf("Valid = false, want true (issues: %v)", got.Issues)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
	if len(got.Issues) != 0 {
		t.Errorf("Issues = %v, want none", got.Issues)
	}
}

func TestValidateInvalidCitationForcesInvalid(t *testing.T) {
	stub := &stubProvider{response: `{"valid": true, "confidence": 0.95, "issues": []}`}
	v := newTestValidator(stub)

	got := v.Validate(context.Background(), "India's capital is New Delhi [Doc ID: doc999].", testDocs(), "What is India's capital?")
	if got.Valid {
		t.Error("Valid = true, want false")
	}
	if got.Confidence > 0.6 {
		t.Errorf("Confidence = %v, want <= 0.6", got.Confidence)
	}
	found := false
	for _, issue := range got.Issues {
		if issue == "Invalid citation: Doc ID 'doc999' not in sources" {
			found = true
		}
	}
	if !found {
		t.Errorf("Issues = %v, missing invalid citation finding", got.Issues)
	}
}

func TestValidateFailsOpen(t *testing.T) {
	v := newTestValidator(&stubProvider{err: errors.New("model unavailable")})

	got := v.Validate(context.Background(), "any answer", testDocs(), "any query")
	if !got.Valid {
		t.Error("Valid = false, want true (fail open)")
	}
	if got.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", got.Confidence)
	}
	if len(got.Issues) != 1 || !strings.HasPrefix(got.Issues[0], "Validation error: ") {
		t.Errorf("Issues = %v, want single validation error entry", got.Issues)
	}
}

func TestBuildDocContext(t *testing.T) {
	docs := testDocs()

	full := buildDocContext(docs, 3000)
	want := "[Doc ID: doc1] India's capital is New Delhi.\n\n[Doc ID: doc2] Mumbai is the largest city."
	if full != want {
		t.Errorf("buildDocContext() = %q, want %q", full, want)
	}

	// Budget for the first block only. A block that would overflow is
	// skipped whole, never cut.
	firstOnly := buildDocContext(docs, 50)
	if firstOnly != "[Doc ID: doc1] India's capital is New Delhi." {
		t.Errorf("buildDocContext() = %q, want first block only", firstOnly)
	}

	if got := buildDocContext(docs, 10); got != "" {
		t.Errorf("buildDocContext() = %q, want empty", got)
	}
}
