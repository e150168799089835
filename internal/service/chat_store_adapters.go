package service

import (
	"context"
	"time"

	"oraculo-be/internal/chatsync"
	"oraculo-be/internal/constant"
	"oraculo-be/internal/entity"
	"oraculo-be/internal/repository/specification"
	"oraculo-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// gormHistoryStore adapts the chat history repository to the synchronization
// core's read-only port.
type gormHistoryStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func (s *gormHistoryStore) Messages(ctx context.Context, sessionID string) ([]chatsync.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.ChatHistoryRepository().FindAll(ctx, specification.BySessionKey{SessionId: sessionID})
	if err != nil {
		return nil, err
	}

	msgs := make([]chatsync.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, chatsync.Message{
			Type:    chatsync.MessageType(row.Type),
			Content: row.Content,
		})
	}
	return msgs, nil
}

func (s *gormHistoryStore) CountHuman(ctx context.Context, sessionID string) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	n, err := uow.ChatHistoryRepository().CountByType(ctx, sessionID, constant.ChatMessageTypeHuman)
	return int(n), err
}

// gormSessionStore adapts the session-metadata repository.
type gormSessionStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func (s *gormSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.BySessionKey{SessionId: sessionID})
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

func (s *gormSessionStore) Create(ctx context.Context, sessionID, userID, title string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().Create(ctx, &entity.ChatSession{
		Id:        uuid.New(),
		SessionId: sessionID,
		UserId:    uid,
		Title:     title,
		CreatedAt: time.Now(),
	})
}

func (s *gormSessionStore) Rename(ctx context.Context, sessionID, title string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.BySessionKey{SessionId: sessionID})
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	session.Title = title
	now := time.Now()
	session.UpdatedAt = &now
	return uow.ChatSessionRepository().Update(ctx, session)
}

func (s *gormSessionStore) SoftDelete(ctx context.Context, sessionID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.BySessionKey{SessionId: sessionID})
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return uow.ChatSessionRepository().Delete(ctx, session.Id)
}

func (s *gormSessionStore) ListActive(ctx context.Context, userID string) ([]chatsync.SessionInfo, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: uid},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	infos := make([]chatsync.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, chatsync.SessionInfo{
			ID:    session.SessionId,
			Title: session.Title,
		})
	}
	return infos, nil
}
