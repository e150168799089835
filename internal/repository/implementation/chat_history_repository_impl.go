package implementation

import (
	"context"
	"strings"

	"oraculo-be/internal/entity"
	"oraculo-be/internal/mapper"
	"oraculo-be/internal/model"
	"oraculo-be/internal/repository/contract"
	"oraculo-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatHistoryRepository(db *gorm.DB) contract.ChatHistoryRepository {
	return &ChatHistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatHistoryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatHistoryRepositoryImpl) Create(ctx context.Context, message *entity.ChatHistory) error {
	message.SessionId = strings.TrimSpace(message.SessionId)
	m := r.mapper.ChatHistoryToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	if decoded := r.mapper.ChatHistoryToEntity(m); decoded != nil {
		*message = *decoded
	}
	return nil
}

// FindAll returns decodable rows in insertion order. Rows whose jsonb payload
// does not parse into a known message shape are dropped silently.
func (r *ChatHistoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatHistory, error) {
	var models []*model.ChatHistory
	query := r.applySpecifications(r.db.WithContext(ctx).Order("id ASC"), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatHistory, 0, len(models))
	for _, m := range models {
		if e := r.mapper.ChatHistoryToEntity(m); e != nil {
			entities = append(entities, e)
		}
	}
	return entities, nil
}

func (r *ChatHistoryRepositoryImpl) CountByType(ctx context.Context, sessionId string, messageType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatHistory{}).
		Where("TRIM(session_id) = ?", strings.TrimSpace(sessionId)).
		Where("message->>'type' = ?", messageType).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
