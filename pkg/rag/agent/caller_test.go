package agent

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"multilingual-rag-be/pkg/llm"
)

type fakeProvider struct {
	result *llm.Result
	err    error
	calls  int
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Result, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPricingCost(t *testing.T) {
	tests := []struct {
		name             string
		pricing          Pricing
		promptTokens     int
		completionTokens int
		want             float64
	}{
		{
			name:         "zero pricing yields zero cost",
			pricing:      Pricing{},
			promptTokens: 1000, completionTokens: 500,
			want: 0,
		},
		{
			name:         "input only",
			pricing:      Pricing{InputPer1K: 0.002},
			promptTokens: 500, completionTokens: 0,
			want: 0.001,
		},
		{
			name:         "input and output",
			pricing:      Pricing{InputPer1K: 0.001, OutputPer1K: 0.002},
			promptTokens: 1000, completionTokens: 1000,
			want: 0.003,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pricing.Cost(tt.promptTokens, tt.completionTokens)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatsAccumulateAndReset(t *testing.T) {
	s := NewStats()

	s.RecordCall(100, 0.01, 2*time.Second)
	s.RecordCall(50, 0.005, time.Second)
	s.RecordError()

	snap := s.Snapshot()
	if snap.Calls != 2 {
		t.Errorf("Calls = %d, want 2", snap.Calls)
	}
	if snap.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", snap.TotalTokens)
	}
	if snap.TotalCost != 0.015 {
		t.Errorf("TotalCost = %v, want 0.015", snap.TotalCost)
	}
	if snap.TotalTime != 3 {
		t.Errorf("TotalTime = %v, want 3", snap.TotalTime)
	}
	if snap.Errors != 1 {
		t.Errorf("Errors = %d, want 1", snap.Errors)
	}

	s.Reset()
	snap = s.Snapshot()
	if snap.Calls != 0 || snap.TotalTokens != 0 || snap.TotalCost != 0 || snap.TotalTime != 0 || snap.Errors != 0 {
		t.Errorf("Snapshot after Reset = %+v, want all zero", snap)
	}
}

func TestCallerRecordsUsage(t *testing.T) {
	provider := &fakeProvider{
		result: &llm.Result{Text: "ok", PromptTokens: 30, CompletionTokens: 10},
	}
	caller := NewCaller("router", provider, Pricing{InputPer1K: 0.001, OutputPer1K: 0.002}, testLogger())

	result, err := caller.Call(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q, want %q", result.Text, "ok")
	}

	snap := caller.Stats().Snapshot()
	if snap.Calls != 1 {
		t.Errorf("Calls = %d, want 1", snap.Calls)
	}
	if snap.TotalTokens != 40 {
		t.Errorf("TotalTokens = %d, want 40", snap.TotalTokens)
	}
	wantCost := 0.001*30/1000 + 0.002*10/1000
	if diff := snap.TotalCost - wantCost; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("TotalCost = %v, want %v", snap.TotalCost, wantCost)
	}
	if snap.Errors != 0 {
		t.Errorf("Errors = %d, want 0", snap.Errors)
	}
}

func TestCallerRecordsError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	caller := NewCaller("planner", provider, Pricing{}, testLogger())

	_, err := caller.Call(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("Call() expected error, got nil")
	}

	snap := caller.Stats().Snapshot()
	if snap.Calls != 0 {
		t.Errorf("Calls = %d, want 0", snap.Calls)
	}
	if snap.Errors != 1 {
		t.Errorf("Errors = %d, want 1", snap.Errors)
	}
}
