package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// VectorStore mirrors a store hosted by the external vector-search API.
// RemoteId is the id assigned by the hosted API; local rows carry naming and
// ownership, remote state carries usage counters.
type VectorStore struct {
	Id            uuid.UUID
	RemoteId      string
	Name          string
	Description   string
	DocumentCount int
	UsageBytes    int64
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}

type VectorStoreDocument struct {
	Id            uuid.UUID
	VectorStoreId uuid.UUID
	RemoteFileId  string
	Filename      string
	SizeBytes     int64
	Status        DocumentStatus
	CreatedAt     time.Time
}

// VectorStoreChunk keeps a local embedding per uploaded chunk so the admin
// dashboard can preview similarity matches without a remote round trip.
type VectorStoreChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
