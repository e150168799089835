package contract

import (
	"context"

	"oraculo-be/internal/entity"
	"oraculo-be/internal/repository/specification"

	"github.com/google/uuid"
)

type VectorStoreRepository interface {
	Create(ctx context.Context, store *entity.VectorStore) error
	Update(ctx context.Context, store *entity.VectorStore) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorStore, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorStore, error)
}

type VectorStoreDocumentRepository interface {
	Create(ctx context.Context, doc *entity.VectorStoreDocument) error
	Update(ctx context.Context, doc *entity.VectorStoreDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVectorStoreId(ctx context.Context, storeId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorStoreDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorStoreDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type VectorStoreChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.VectorStoreChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	// SearchSimilar orders chunks of the given store by cosine distance to the
	// query embedding.
	SearchSimilar(ctx context.Context, storeId uuid.UUID, embedding []float32, limit int) ([]*entity.VectorStoreChunk, error)
}
