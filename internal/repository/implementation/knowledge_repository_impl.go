package implementation

import (
	"context"
	"errors"

	"oraculo-be/internal/entity"
	"oraculo-be/internal/mapper"
	"oraculo-be/internal/model"
	"oraculo-be/internal/repository/contract"
	"oraculo-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VectorStoreRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewVectorStoreRepository(db *gorm.DB) contract.VectorStoreRepository {
	return &VectorStoreRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *VectorStoreRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *VectorStoreRepositoryImpl) Create(ctx context.Context, store *entity.VectorStore) error {
	m := r.mapper.VectorStoreToModel(store)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*store = *r.mapper.VectorStoreToEntity(m)
	return nil
}

func (r *VectorStoreRepositoryImpl) Update(ctx context.Context, store *entity.VectorStore) error {
	m := r.mapper.VectorStoreToModel(store)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*store = *r.mapper.VectorStoreToEntity(m)
	return nil
}

func (r *VectorStoreRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.VectorStore{}, id).Error
}

func (r *VectorStoreRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorStore, error) {
	var m model.VectorStore
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.VectorStoreToEntity(&m), nil
}

func (r *VectorStoreRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorStore, error) {
	var models []*model.VectorStore
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.VectorStore, len(models))
	for i, m := range models {
		entities[i] = r.mapper.VectorStoreToEntity(m)
	}
	return entities, nil
}

type VectorStoreDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewVectorStoreDocumentRepository(db *gorm.DB) contract.VectorStoreDocumentRepository {
	return &VectorStoreDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *VectorStoreDocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *VectorStoreDocumentRepositoryImpl) Create(ctx context.Context, doc *entity.VectorStoreDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *VectorStoreDocumentRepositoryImpl) Update(ctx context.Context, doc *entity.VectorStoreDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *VectorStoreDocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.VectorStoreDocument{}, id).Error
}

func (r *VectorStoreDocumentRepositoryImpl) DeleteByVectorStoreId(ctx context.Context, storeId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("vector_store_id = ?", storeId).Delete(&model.VectorStoreDocument{}).Error
}

func (r *VectorStoreDocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorStoreDocument, error) {
	var m model.VectorStoreDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *VectorStoreDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorStoreDocument, error) {
	var models []*model.VectorStoreDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.VectorStoreDocument, len(models))
	for i, m := range models {
		entities[i] = r.mapper.DocumentToEntity(m)
	}
	return entities, nil
}

func (r *VectorStoreDocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.VectorStoreDocument{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type VectorStoreChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewVectorStoreChunkRepository(db *gorm.DB) contract.VectorStoreChunkRepository {
	return &VectorStoreChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *VectorStoreChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.VectorStoreChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.VectorStoreChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ChunkToModel(c)
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

func (r *VectorStoreChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.VectorStoreChunk{}).Error
}

func (r *VectorStoreChunkRepositoryImpl) SearchSimilar(ctx context.Context, storeId uuid.UUID, embedding []float32, limit int) ([]*entity.VectorStoreChunk, error) {
	var models []*model.VectorStoreChunk
	err := r.db.WithContext(ctx).
		Joins("JOIN vector_store_documents d ON d.id = vector_store_chunks.document_id").
		Where("d.vector_store_id = ?", storeId).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "vector_store_chunks.embedding <=> ?",
			Vars: []interface{}{pgvector.NewVector(embedding)},
		}}).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.VectorStoreChunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChunkToEntity(m)
	}
	return entities, nil
}
