package factory

import (
	"fmt"

	"multilingual-rag-be/pkg/llm"
	"multilingual-rag-be/pkg/llm/ollama"
	"multilingual-rag-be/pkg/llm/openrouter"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openrouter", "openai":
		return openrouter.NewOpenRouterProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
