package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes double as NATS subject suffixes ("events." + type).
const (
	TypeDocumentUploaded  = "document.uploaded"
	TypeDocumentProcessed = "document.processed"
	TypeDocumentFailed    = "document.failed"
)

func DocumentUploaded(documentId uuid.UUID, userId uuid.UUID, title string) Event {
	return BaseEvent{
		Type: TypeDocumentUploaded,
		Data: map[string]interface{}{
			"document_id": documentId,
			"user_id":     userId,
			"title":       title,
		},
		OccurredAt: time.Now(),
	}
}

func DocumentProcessed(documentId uuid.UUID, userId uuid.UUID, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentProcessed,
		Data: map[string]interface{}{
			"document_id": documentId,
			"user_id":     userId,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

func DocumentFailed(documentId uuid.UUID, userId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: TypeDocumentFailed,
		Data: map[string]interface{}{
			"document_id": documentId,
			"user_id":     userId,
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}
