package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type VectorStore struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RemoteId    string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Description string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (VectorStore) TableName() string {
	return "vector_stores"
}

type VectorStoreDocument struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VectorStoreId uuid.UUID `gorm:"type:uuid;not null;index"`
	RemoteFileId  string    `gorm:"type:varchar(255);not null"`
	Filename      string    `gorm:"type:varchar(512);not null"`
	SizeBytes     int64     `gorm:"default:0"`
	Status        string    `gorm:"type:varchar(50);not null;default:'processing'"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (VectorStoreDocument) TableName() string {
	return "vector_store_documents"
}

type VectorStoreChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex int             `gorm:"default:0"`
	Content    string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text dimensionality
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (VectorStoreChunk) TableName() string {
	return "vector_store_chunks"
}
