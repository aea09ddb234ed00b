package dto

import (
	"time"

	"github.com/google/uuid"
)

// NotificationMessage is the payload pushed to websocket clients when a
// document changes state during ingestion.
type NotificationMessage struct {
	Event      string    `json:"event"`
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
