package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentStatusPending   = "pending"
	DocumentStatusCompleted = "completed"
	DocumentStatusFailed    = "failed"
)

type Document struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title      string
	Content    string
	Language   string
	Status     string
	FileType   string
	PageCount  int
	ChunkCount int
	UserId     uuid.UUID `gorm:"type:uuid;index"`
	Metadata   map[string]interface{}
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

type DocumentChunk struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Text           string
	EmbeddingValue []float32
	DocumentId     uuid.UUID `gorm:"type:uuid;index"`
	ChunkIndex     int
	TokenCount     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
