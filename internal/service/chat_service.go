package service

import (
	"context"

	"oraculo-be/internal/chatsync"
	"oraculo-be/internal/dto"
	"oraculo-be/internal/pkg/logger"
	"oraculo-be/internal/repository/memory"
	"oraculo-be/internal/repository/unitofwork"
)

type IChatService interface {
	State(ctx context.Context, userID string) (*dto.ChatStateResponse, error)
	CreateSession(ctx context.Context, userID, specificID string) (*dto.CreateSessionResponse, error)
	SelectSession(ctx context.Context, userID, sessionID string) (*dto.ChatStateResponse, error)
	SendMessage(ctx context.Context, userID, content string) error
	RenameSession(ctx context.Context, userID, sessionID, title string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
	ResetProcessing(ctx context.Context, userID string) error
	FailPending(userID, sessionID, content, reason string)
}

// chatService fronts one synchronization manager per user. Managers live in
// the in-memory registry and carry the polling goroutine; this service only
// routes calls and translates state into DTOs.
type chatService struct {
	registry   *memory.ManagerRegistry
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	notifier   chatsync.Notifier
	cfg        chatsync.Config
	logger     logger.ILogger
}

func NewChatService(
	registry *memory.ManagerRegistry,
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	notifier chatsync.Notifier,
	cfg chatsync.Config,
	log logger.ILogger,
) IChatService {
	return &chatService{
		registry:   registry,
		uowFactory: uowFactory,
		publisher:  publisher,
		notifier:   notifier,
		cfg:        cfg,
		logger:     log,
	}
}

// watermillGenerator satisfies the core's Generator port by handing the
// message to the in-process bus; the consumer does the webhook call.
type watermillGenerator struct {
	publisher IPublisherService
}

func (g *watermillGenerator) Invoke(_ context.Context, content, sessionID, userID string) error {
	return g.publisher.PublishGenerate(dto.GenerateMessage{
		Content:   content,
		SessionId: sessionID,
		UserId:    userID,
	})
}

func (s *chatService) managerFor(ctx context.Context, userID string) *chatsync.Manager {
	return s.registry.GetOrCreate(userID, func() *chatsync.Manager {
		m := chatsync.NewManager(
			s.cfg,
			userID,
			&gormHistoryStore{uowFactory: s.uowFactory},
			&gormSessionStore{uowFactory: s.uowFactory},
			&watermillGenerator{publisher: s.publisher},
			s.notifier,
			s.logger,
		)
		if err := m.LoadSessions(ctx); err != nil {
			s.logger.Warn("ChatService", "Failed to preload sessions", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return m
	})
}

func (s *chatService) State(ctx context.Context, userID string) (*dto.ChatStateResponse, error) {
	m := s.managerFor(ctx, userID)
	return &dto.ChatStateResponse{Snapshot: m.Snapshot()}, nil
}

func (s *chatService) CreateSession(ctx context.Context, userID, specificID string) (*dto.CreateSessionResponse, error) {
	m := s.managerFor(ctx, userID)
	id := m.CreateNewSession(specificID)
	if id == "" {
		// A creation is already in flight; report the current session.
		id = m.Snapshot().SessionID
	}
	return &dto.CreateSessionResponse{SessionId: id}, nil
}

func (s *chatService) SelectSession(ctx context.Context, userID, sessionID string) (*dto.ChatStateResponse, error) {
	m := s.managerFor(ctx, userID)
	if err := m.ChangeSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return &dto.ChatStateResponse{Snapshot: m.Snapshot()}, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID, content string) error {
	return s.managerFor(ctx, userID).SendMessage(ctx, content)
}

func (s *chatService) RenameSession(ctx context.Context, userID, sessionID, title string) error {
	return s.managerFor(ctx, userID).RenameSession(ctx, sessionID, title)
}

func (s *chatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return s.managerFor(ctx, userID).DeleteSession(ctx, sessionID)
}

func (s *chatService) ResetProcessing(_ context.Context, userID string) error {
	m, ok := s.registry.Get(userID)
	if !ok {
		return nil
	}
	m.ResetProcessing()
	return nil
}

// FailPending is called by the generation consumer when the workflow rejects
// a dispatched message.
func (s *chatService) FailPending(userID, sessionID, content, reason string) {
	if m, ok := s.registry.Get(userID); ok {
		m.FailPending(sessionID, content, reason)
	}
}
