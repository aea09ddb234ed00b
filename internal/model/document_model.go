package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title      string         `gorm:"type:varchar(255);not null"`
	Content    string         `gorm:"type:text"`
	Language   string         `gorm:"type:varchar(8);default:'en'"`
	Status     string         `gorm:"type:varchar(16);not null;default:'pending';index"`
	FileType   string         `gorm:"type:varchar(16)"`
	PageCount  int            `gorm:"default:0"`
	ChunkCount int            `gorm:"default:0"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
