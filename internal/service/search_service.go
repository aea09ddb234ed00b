package service

import (
	"context"
	"fmt"
	"log"

	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/internal/repository/specification"
	"multilingual-rag-be/internal/repository/unitofwork"
	"multilingual-rag-be/pkg/embedding"
	"multilingual-rag-be/pkg/rag/retrieve"
	"multilingual-rag-be/pkg/rag/schema"

	"github.com/google/uuid"
)

// searchService adapts the chunk store to the retriever's Searcher port:
// embed the query, run a user-scoped similarity search, enrich hits with
// their parent document titles.
type searchService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
) retrieve.Searcher {
	return &searchService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (s *searchService) Search(ctx context.Context, query string, topK int, filters map[string]interface{}, minScore float64) ([]schema.Document, error) {
	userId, err := userIdFromFilters(filters)
	if err != nil {
		return nil, err
	}

	res, err := s.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, res.Embedding.Values, topK, userId, minScore)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	scored = filterByDocumentId(scored, filters)

	titles, err := s.documentTitles(ctx, uow, scored)
	if err != nil {
		// Titles are presentation sugar; the search result stands without them.
		log.Printf("[WARN] Failed to load document titles: %v", err)
		titles = map[uuid.UUID]string{}
	}

	docs := make([]schema.Document, 0, len(scored))
	for _, sc := range scored {
		docs = append(docs, schema.Document{
			ID:    sc.Chunk.Id.String(),
			Text:  sc.Chunk.Text,
			Score: sc.Similarity,
			Metadata: map[string]interface{}{
				"document_id":   sc.Chunk.DocumentId.String(),
				"document_name": titles[sc.Chunk.DocumentId],
				"chunk_index":   sc.Chunk.ChunkIndex,
				"user_id":       userId.String(),
			},
		})
	}
	return docs, nil
}

func (s *searchService) documentTitles(ctx context.Context, uow unitofwork.UnitOfWork, scored []*contract.ScoredDocumentChunk) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]bool, len(scored))
	ids := make([]uuid.UUID, 0, len(scored))
	for _, sc := range scored {
		if !seen[sc.Chunk.DocumentId] {
			seen[sc.Chunk.DocumentId] = true
			ids = append(ids, sc.Chunk.DocumentId)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	documents, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}

	titles := make(map[uuid.UUID]string, len(documents))
	for _, d := range documents {
		titles[d.Id] = d.Title
	}
	return titles, nil
}

func userIdFromFilters(filters map[string]interface{}) (uuid.UUID, error) {
	switch v := filters["user_id"].(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid user_id filter: %w", err)
		}
		return id, nil
	default:
		return uuid.Nil, fmt.Errorf("search requires a user_id filter")
	}
}

// filterByDocumentId narrows hits to a single document when the caller asked
// for one. Applied after the vector search, which over-fetches enough to
// leave useful results behind the filter.
func filterByDocumentId(scored []*contract.ScoredDocumentChunk, filters map[string]interface{}) []*contract.ScoredDocumentChunk {
	raw, ok := filters["document_id"]
	if !ok {
		return scored
	}

	var want string
	switch v := raw.(type) {
	case uuid.UUID:
		want = v.String()
	case string:
		want = v
	default:
		return scored
	}

	kept := make([]*contract.ScoredDocumentChunk, 0, len(scored))
	for _, sc := range scored {
		if sc.Chunk.DocumentId.String() == want {
			kept = append(kept, sc)
		}
	}
	return kept
}
