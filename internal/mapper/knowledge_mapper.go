package mapper

import (
	"time"

	"oraculo-be/internal/entity"
	"oraculo-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) VectorStoreToEntity(v *model.VectorStore) *entity.VectorStore {
	if v == nil {
		return nil
	}

	var deletedAt *time.Time
	if v.DeletedAt.Valid {
		t := v.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !v.UpdatedAt.IsZero() {
		t := v.UpdatedAt
		updatedAt = &t
	}

	return &entity.VectorStore{
		Id:          v.Id,
		RemoteId:    v.RemoteId,
		Name:        v.Name,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   v.DeletedAt.Valid,
	}
}

func (m *KnowledgeMapper) VectorStoreToModel(v *entity.VectorStore) *model.VectorStore {
	if v == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if v.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *v.DeletedAt, Valid: true}
	} else if v.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if v.UpdatedAt != nil {
		updatedAt = *v.UpdatedAt
	}

	return &model.VectorStore{
		Id:          v.Id,
		RemoteId:    v.RemoteId,
		Name:        v.Name,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *KnowledgeMapper) DocumentToEntity(d *model.VectorStoreDocument) *entity.VectorStoreDocument {
	if d == nil {
		return nil
	}
	return &entity.VectorStoreDocument{
		Id:            d.Id,
		VectorStoreId: d.VectorStoreId,
		RemoteFileId:  d.RemoteFileId,
		Filename:      d.Filename,
		SizeBytes:     d.SizeBytes,
		Status:        entity.DocumentStatus(d.Status),
		CreatedAt:     d.CreatedAt,
	}
}

func (m *KnowledgeMapper) DocumentToModel(d *entity.VectorStoreDocument) *model.VectorStoreDocument {
	if d == nil {
		return nil
	}
	return &model.VectorStoreDocument{
		Id:            d.Id,
		VectorStoreId: d.VectorStoreId,
		RemoteFileId:  d.RemoteFileId,
		Filename:      d.Filename,
		SizeBytes:     d.SizeBytes,
		Status:        string(d.Status),
		CreatedAt:     d.CreatedAt,
	}
}

func (m *KnowledgeMapper) ChunkToEntity(c *model.VectorStoreChunk) *entity.VectorStoreChunk {
	if c == nil {
		return nil
	}
	return &entity.VectorStoreChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		Embedding:  c.Embedding.Slice(),
		CreatedAt:  c.CreatedAt,
	}
}

func (m *KnowledgeMapper) ChunkToModel(c *entity.VectorStoreChunk) *model.VectorStoreChunk {
	if c == nil {
		return nil
	}
	return &model.VectorStoreChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		Embedding:  pgvector.NewVector(c.Embedding),
		CreatedAt:  c.CreatedAt,
	}
}
