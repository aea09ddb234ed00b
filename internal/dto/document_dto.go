package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	FileType string    `json:"file_type"`
}

type DocumentListItem struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Language   string     `json:"language"`
	Status     string     `json:"status"`
	FileType   string     `json:"file_type"`
	PageCount  int        `json:"page_count"`
	ChunkCount int        `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int64              `json:"total"`
}

type ShowDocumentResponse struct {
	Id         uuid.UUID              `json:"id"`
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Language   string                 `json:"language"`
	Status     string                 `json:"status"`
	FileType   string                 `json:"file_type"`
	PageCount  int                    `json:"page_count"`
	ChunkCount int                    `json:"chunk_count"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  *time.Time             `json:"updated_at"`
}

// PublishProcessDocumentMessage is the ingestion queue payload: the consumer
// refetches everything else from the database.
type PublishProcessDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
