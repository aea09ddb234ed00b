package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"multilingual-rag-be/pkg/llm"
)

// Pricing holds the per-1K-token rates used to turn reported usage into
// dollars. Zero pricing simply yields zero cost (local models).
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Cost computes the dollar cost of a single call from its token usage.
func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000*p.InputPer1K + float64(completionTokens)/1000*p.OutputPer1K
}

// Caller wraps an LLM provider for one named stage. It times every call,
// prices the reported usage and records both into the stage's Stats, so the
// concrete stages only deal with prompts and parsing.
type Caller struct {
	name     string
	tag      string
	provider llm.LLMProvider
	pricing  Pricing
	stats    *Stats
	logger   *log.Logger
}

func NewCaller(name string, provider llm.LLMProvider, pricing Pricing, logger *log.Logger) *Caller {
	return &Caller{
		name:     name,
		tag:      "[" + strings.ToUpper(name) + "]",
		provider: provider,
		pricing:  pricing,
		stats:    NewStats(),
		logger:   logger,
	}
}

// Name returns the stage name used as the stats key.
func (c *Caller) Name() string { return c.name }

// Stats exposes the stage counters.
func (c *Caller) Stats() *Stats { return c.stats }

// Call sends the chat history to the provider and accounts for the outcome.
func (c *Caller) Call(ctx context.Context, messages []llm.Message, options ...llm.Option) (*llm.Result, error) {
	start := time.Now()

	result, err := c.provider.Chat(ctx, messages, options...)
	elapsed := time.Since(start)

	if err != nil {
		c.stats.RecordError()
		c.logger.Printf("%s LLM call failed after %.2fs: %v", c.tag, elapsed.Seconds(), err)
		return nil, err
	}

	tokens := result.TotalTokens()
	cost := c.pricing.Cost(result.PromptTokens, result.CompletionTokens)
	c.stats.RecordCall(tokens, cost, elapsed)

	c.logger.Printf("%s LLM call done in %.2fs (%d tokens, $%.6f)", c.tag, elapsed.Seconds(), tokens, cost)

	return result, nil
}
