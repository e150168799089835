package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateVectorStoreRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=500"`
}

type VectorStoreResponse struct {
	Id            uuid.UUID `json:"id"`
	RemoteId      string    `json:"remote_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DocumentCount int       `json:"document_count"`
	UsageBytes    int64     `json:"usage_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}

type VectorStoreDocumentResponse struct {
	Id           uuid.UUID `json:"id"`
	RemoteFileId string    `json:"remote_file_id"`
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type SearchChunksRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

type ChunkResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
}
