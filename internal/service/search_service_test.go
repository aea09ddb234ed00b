package service

import (
	"context"
	"errors"
	"testing"

	"multilingual-rag-be/internal/entity"
	"multilingual-rag-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRequiresUserIdFilter(t *testing.T) {
	svc := NewSearchService(newFakeUowFactory(), &stubEmbedder{vector: []float32{0.1}})

	_, err := svc.Search(context.Background(), "query", 5, map[string]interface{}{}, 0.7)
	assert.ErrorContains(t, err, "user_id")

	_, err = svc.Search(context.Background(), "query", 5, map[string]interface{}{"user_id": 42}, 0.7)
	assert.Error(t, err)
}

func TestSearchMapsChunksToDocuments(t *testing.T) {
	factory := newFakeUowFactory()
	userId := uuid.New()
	docId := uuid.New()
	chunkId := uuid.New()

	factory.uow.chunks.scored = []*contract.ScoredDocumentChunk{
		{
			Chunk:      &entity.DocumentChunk{Id: chunkId, Text: "solar text", DocumentId: docId, ChunkIndex: 2},
			Similarity: 0.91,
		},
	}
	factory.uow.docs.findAllDocs = []*entity.Document{{Id: docId, Title: "solar.txt"}}

	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	svc := NewSearchService(factory, embedder)

	docs, err := svc.Search(context.Background(), "solar", 5, map[string]interface{}{"user_id": userId.String()}, 0.7)
	require.NoError(t, err)

	assert.Equal(t, []string{"solar"}, embedder.texts)

	require.Len(t, docs, 1)
	assert.Equal(t, chunkId.String(), docs[0].ID)
	assert.Equal(t, "solar text", docs[0].Text)
	assert.Equal(t, 0.91, docs[0].Score)
	assert.Equal(t, "solar.txt", docs[0].Metadata["document_name"])
	assert.Equal(t, docId.String(), docs[0].Metadata["document_id"])
	assert.Equal(t, 2, docs[0].Metadata["chunk_index"])
	assert.Equal(t, userId.String(), docs[0].Metadata["user_id"])
}

func TestSearchNarrowsToRequestedDocument(t *testing.T) {
	factory := newFakeUowFactory()
	keepId := uuid.New()
	dropId := uuid.New()

	factory.uow.chunks.scored = []*contract.ScoredDocumentChunk{
		{Chunk: &entity.DocumentChunk{Id: uuid.New(), Text: "keep", DocumentId: keepId}, Similarity: 0.8},
		{Chunk: &entity.DocumentChunk{Id: uuid.New(), Text: "drop", DocumentId: dropId}, Similarity: 0.9},
	}
	factory.uow.docs.findAllDocs = []*entity.Document{{Id: keepId, Title: "kept.txt"}}

	svc := NewSearchService(factory, &stubEmbedder{vector: []float32{0.3}})

	filters := map[string]interface{}{
		"user_id":     uuid.New(),
		"document_id": keepId.String(),
	}
	docs, err := svc.Search(context.Background(), "anything", 5, filters, 0.7)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "keep", docs[0].Text)
}

func TestSearchEmbeddingFailurePropagates(t *testing.T) {
	svc := NewSearchService(newFakeUowFactory(), &stubEmbedder{err: errors.New("model offline")})

	filters := map[string]interface{}{"user_id": uuid.New().String()}
	_, err := svc.Search(context.Background(), "q", 5, filters, 0.7)
	assert.ErrorContains(t, err, "failed to embed")
}

func TestSearchStoreFailurePropagates(t *testing.T) {
	factory := newFakeUowFactory()
	factory.uow.chunks.searchErr = errors.New("connection refused")

	svc := NewSearchService(factory, &stubEmbedder{vector: []float32{0.3}})

	filters := map[string]interface{}{"user_id": uuid.New().String()}
	_, err := svc.Search(context.Background(), "q", 5, filters, 0.7)
	assert.ErrorContains(t, err, "similarity search failed")
}
