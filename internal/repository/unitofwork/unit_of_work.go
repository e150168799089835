package unitofwork

import (
	"context"

	"oraculo-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatHistoryRepository() contract.ChatHistoryRepository
	VectorStoreRepository() contract.VectorStoreRepository
	VectorStoreDocumentRepository() contract.VectorStoreDocumentRepository
	VectorStoreChunkRepository() contract.VectorStoreChunkRepository
}
