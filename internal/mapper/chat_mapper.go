package mapper

import (
	"encoding/json"
	"time"

	"oraculo-be/internal/constant"
	"oraculo-be/internal/entity"
	"oraculo-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:        s.Id,
		SessionId: s.SessionId,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		SessionId: s.SessionId,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// History Mappers

type historyPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ChatHistoryToEntity decodes the jsonb message column. Rows with an unknown
// type or a missing content string return nil: the workflow automation owns
// the table too and malformed rows must be skipped, not surfaced as errors.
func (m *ChatMapper) ChatHistoryToEntity(h *model.ChatHistory) *entity.ChatHistory {
	if h == nil {
		return nil
	}

	var payload historyPayload
	if err := json.Unmarshal(h.Message, &payload); err != nil {
		return nil
	}
	if payload.Type != constant.ChatMessageTypeHuman && payload.Type != constant.ChatMessageTypeAI {
		return nil
	}

	return &entity.ChatHistory{
		Id:        h.Id,
		SessionId: h.SessionId,
		Type:      payload.Type,
		Content:   payload.Content,
		CreatedAt: h.CreatedAt,
	}
}

func (m *ChatMapper) ChatHistoryToModel(h *entity.ChatHistory) *model.ChatHistory {
	if h == nil {
		return nil
	}

	raw, _ := json.Marshal(historyPayload{Type: h.Type, Content: h.Content})

	return &model.ChatHistory{
		Id:        h.Id,
		SessionId: h.SessionId,
		Message:   datatypes.JSON(raw),
		CreatedAt: h.CreatedAt,
	}
}
