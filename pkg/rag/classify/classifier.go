package classify

import (
	"context"
	"log"
	"strings"

	"multilingual-rag-be/pkg/llm"
	"multilingual-rag-be/pkg/rag/agent"
	"multilingual-rag-be/pkg/rag/schema"
)

const systemPrompt = `You are a query classifier. Your ONLY job is to assign the user query to exactly one category. You do NOT answer the query.

CATEGORIES:
SIMPLE_QA: Direct factual question with a single answer
  - "What is the capital of India?"
  - "When was the company founded?"
COMPARISON: Compares two or more things
  - "Compare iPhone vs Samsung Galaxy"
  - "Which is faster, X or Y?"
SUMMARIZATION: Asks to condense or recap content
  - "Summarize the document about AI"
  - "Give me an overview of the report"
ANALYSIS: Asks for reasoning, causes or interpretation
  - "Why did the stock market crash?"
  - "What are the implications of this policy?"
EXTRACTION: Asks to pull structured data out of content
  - "List all dates mentioned in the document"
  - "Extract the names of every person cited"
MULTI_HOP: Requires chaining multiple facts to answer
  - "Who is the CEO of the company that makes iPhone?"

RESPONSE FORMAT:
Respond with ONLY the category name in uppercase. No explanation, no punctuation.`

// Classifier assigns one of the fixed query categories using a
// low-temperature, short-output model call. A malformed response is never
// retried; it is coerced onto the category set instead.
type Classifier struct {
	caller *agent.Caller
	logger *log.Logger
}

func NewClassifier(caller *agent.Caller, logger *log.Logger) *Classifier {
	return &Classifier{
		caller: caller,
		logger: logger,
	}
}

// Classify returns the category for the query.
func (c *Classifier) Classify(ctx context.Context, query string) (schema.QueryType, error) {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Classify this query: " + query},
	}

	result, err := c.caller.Call(ctx, messages,
		llm.WithTemperature(0.1), // Low temperature for consistent classification
		llm.WithMaxTokens(50),
	)
	if err != nil {
		return "", err
	}

	queryType, matched := coerce(result.Text)
	if !matched {
		c.logger.Printf("[WARN] Invalid query type %q, defaulting to %s", strings.TrimSpace(result.Text), schema.QueryTypeSimpleQA)
	}

	c.logger.Printf("[ROUTER] Classified as: %s", queryType)
	return queryType, nil
}

// coerce maps a raw model response onto the category set: exact match first,
// then substring match in enumeration order, then the SIMPLE_QA default.
func coerce(raw string) (schema.QueryType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))

	for _, valid := range schema.ValidQueryTypes {
		if normalized == string(valid) {
			return valid, true
		}
	}

	for _, valid := range schema.ValidQueryTypes {
		if strings.Contains(normalized, string(valid)) {
			return valid, true
		}
	}

	return schema.QueryTypeSimpleQA, false
}
