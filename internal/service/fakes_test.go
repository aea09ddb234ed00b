package service

// In-memory fakes shared by the service unit tests. Each fake records the
// calls it receives so tests can assert on side effects without a database
// or broker.

import (
	"context"

	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/entity"
	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/internal/repository/specification"
	"multilingual-rag-be/internal/repository/unitofwork"
	"multilingual-rag-be/pkg/embedding"
	"multilingual-rag-be/pkg/rag/schema"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeCache struct {
	stored      map[string]*schema.Result
	setKeys     []string
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: map[string]*schema.Result{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*schema.Result, bool) {
	res, ok := c.stored[key]
	return res, ok
}

func (c *fakeCache) Set(ctx context.Context, key string, result *schema.Result) {
	c.stored[key] = result
	c.setKeys = append(c.setKeys, key)
}

func (c *fakeCache) InvalidateUser(ctx context.Context, userId uuid.UUID) {
	c.invalidated = append(c.invalidated, userId)
}

type fakeDocumentRepo struct {
	created       []*entity.Document
	updated       []*entity.Document
	statusUpdates map[uuid.UUID]string
	deleted       []uuid.UUID

	findOneDoc  *entity.Document
	findOneErr  error
	findAllDocs []*entity.Document
	findAllErr  error
	createErr   error
	updateErr   error
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *entity.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, document)
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, document *entity.Document) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = append(r.updated, document)
	return nil
}

func (r *fakeDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if r.statusUpdates == nil {
		r.statusUpdates = map[uuid.UUID]string{}
	}
	r.statusUpdates[id] = status
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeDocumentRepo) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return r.findOneDoc, r.findOneErr
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return r.findAllDocs, r.findAllErr
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.findAllDocs)), nil
}

type fakeChunkRepo struct {
	bulkCreated    [][]*entity.DocumentChunk
	deletedByDocId []uuid.UUID
	countsByDoc    map[uuid.UUID]int64
	scored         []*contract.ScoredDocumentChunk
	chunkCount     int64

	createBulkErr error
	searchErr     error
}

func (r *fakeChunkRepo) Create(ctx context.Context, chunk *entity.DocumentChunk) error {
	return nil
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if r.createBulkErr != nil {
		return r.createBulkErr
	}
	r.bulkCreated = append(r.bulkCreated, chunks)
	return nil
}

func (r *fakeChunkRepo) Update(ctx context.Context, chunk *entity.DocumentChunk) error {
	return nil
}

func (r *fakeChunkRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r *fakeChunkRepo) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return nil
}

func (r *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.deletedByDocId = append(r.deletedByDocId, documentId)
	return nil
}

func (r *fakeChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	return nil, nil
}

func (r *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}

func (r *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return r.chunkCount, nil
}

func (r *fakeChunkRepo) CountByDocumentIds(ctx context.Context, documentIds []uuid.UUID) (map[uuid.UUID]int64, error) {
	if r.countsByDoc == nil {
		return map[uuid.UUID]int64{}, nil
	}
	return r.countsByDoc, nil
}

func (r *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	return r.scored, r.searchErr
}

type fakeUow struct {
	docs   *fakeDocumentRepo
	chunks *fakeChunkRepo

	beginCalled    bool
	commitCalled   bool
	rollbackCalled bool
	beginErr       error
	commitErr      error
}

func (u *fakeUow) Begin(ctx context.Context) error {
	u.beginCalled = true
	return u.beginErr
}

func (u *fakeUow) Commit() error {
	u.commitCalled = true
	return u.commitErr
}

func (u *fakeUow) Rollback() error {
	u.rollbackCalled = true
	return nil
}

func (u *fakeUow) DocumentRepository() contract.DocumentRepository {
	return u.docs
}

func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return u.chunks
}

// fakeUowFactory hands every caller the same unit of work so a test can
// assert across the service call's whole lifetime.
type fakeUowFactory struct {
	uow *fakeUow
}

func newFakeUowFactory() *fakeUowFactory {
	return &fakeUowFactory{uow: &fakeUow{docs: &fakeDocumentRepo{}, chunks: &fakeChunkRepo{}}}
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeQueuePublisher struct {
	payloads [][]byte
	err      error
}

func (p *fakeQueuePublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type sentNotification struct {
	userID uuid.UUID
	msg    dto.NotificationMessage
}

type fakeDelivery struct {
	sent      []sentNotification
	broadcast []dto.NotificationMessage
}

func (d *fakeDelivery) Send(userID uuid.UUID, notification dto.NotificationMessage) {
	d.sent = append(d.sent, sentNotification{userID: userID, msg: notification})
}

func (d *fakeDelivery) Broadcast(notification dto.NotificationMessage) {
	d.broadcast = append(d.broadcast, notification)
}

type stubEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.texts = append(s.texts, text)
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: s.vector},
	}, nil
}
