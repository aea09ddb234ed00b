package embedding

// EmbeddingProvider defines the interface for generating text embeddings.
// taskType is "RETRIEVAL_QUERY" for search queries and "RETRIEVAL_DOCUMENT"
// for indexed chunks; providers that do not distinguish ignore it.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}
