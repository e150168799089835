package contract

import (
	"context"

	"oraculo-be/internal/entity"
	"oraculo-be/internal/repository/specification"
)

// ChatHistoryRepository reads and appends the shared history table. There is
// no update or delete: the table is append-only and co-owned by the workflow
// automation.
type ChatHistoryRepository interface {
	Create(ctx context.Context, message *entity.ChatHistory) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatHistory, error)
	CountByType(ctx context.Context, sessionId string, messageType string) (int64, error)
}
