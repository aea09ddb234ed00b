package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/entity"
	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/internal/repository/specification"
	"multilingual-rag-be/internal/repository/unitofwork"
	"multilingual-rag-be/pkg/embedding"
	"multilingual-rag-be/pkg/events"
	pktNats "multilingual-rag-be/pkg/nats"
	"multilingual-rag-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	cache             contract.ResponseCache
	splitter          *utils.RecursiveSplitter
	length            utils.LengthFunc
}

// NewConsumerService builds the ingestion worker. Chunk sizes are measured
// in tokens (512/128 by default) so chunks stay well inside the embedding
// model's context window; when the tokenizer cannot be loaded the splitter
// falls back to rune counts.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	cache contract.ResponseCache,
	chunkSize int,
	chunkOverlap int,
) IConsumerService {
	length := utils.RuneLength
	if counter, err := utils.NewTokenCounter(); err != nil {
		log.Printf("[WARN] Token counter unavailable, chunking by runes: %v", err)
	} else {
		length = counter.Count
	}

	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		cache:             cache,
		splitter:          utils.NewRecursiveSplitter(chunkSize, chunkOverlap, length),
		length:            length,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishProcessDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing document ingestion for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	// Fetch Document (Global, no user restrictions)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	log.Printf("[INFO] Splitting document %s (content length: %d)", document.Id, len(document.Content))

	chunks := cs.splitter.Split(document.Content)
	log.Printf("[INFO] Content split into %d chunks", len(chunks))

	var newChunks []*entity.DocumentChunk

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of document %s: %v", i, document.Id, err)
			// Flip the document to failed instead of retrying: redelivery
			// would hammer a broken model endpoint and leave the owner
			// staring at "pending" forever.
			cs.markFailed(ctx, document, fmt.Sprintf("embedding generation failed on chunk %d: %v", i, err))
			msg.Ack()
			return
		}

		newChunks = append(newChunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			Text:           chunk,
			EmbeddingValue: res.Embedding.Values,
			DocumentId:     document.Id,
			ChunkIndex:     i,
			TokenCount:     cs.length(chunk),
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	log.Printf("[INFO] Deleting old chunks for document %s", document.Id)
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Creating %d new chunks for document %s", len(newChunks), document.Id)
	if len(newChunks) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			log.Printf("[ERROR] Failed to create bulk chunks: %v", err)
			msg.Nack()
			return
		}
	}

	document.Status = entity.DocumentStatusCompleted
	document.ChunkCount = len(newChunks)
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		log.Printf("[ERROR] Failed to update document status: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	if cs.cache != nil {
		// Fresh evidence invalidates cached answers for this user.
		cs.cache.InvalidateUser(ctx, document.UserId)
	}

	if cs.eventPublisher != nil {
		// We log error but don't fail the message as notification is auxiliary
		if err := cs.eventPublisher.Publish(ctx, events.DocumentProcessed(document.Id, document.UserId, len(newChunks))); err != nil {
			log.Printf("[WARN] Failed to publish document processed event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Document processed: %d chunks for DocumentId: %s", len(newChunks), document.Id)
	msg.Ack()
}

// markFailed flips the document to failed on a fresh unit of work so the
// owner sees the outcome even when the ingestion transaction never started.
func (cs *consumerService) markFailed(ctx context.Context, document *entity.Document, reason string) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, entity.DocumentStatusFailed); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as failed: %v", document.Id, err)
	}

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.DocumentFailed(document.Id, document.UserId, reason)); err != nil {
			log.Printf("[WARN] Failed to publish document failed event: %v", err)
		}
	}
}
