package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"oraculo-be/internal/dto"
	"oraculo-be/internal/entity"
	"oraculo-be/internal/pkg/logger"
	"oraculo-be/internal/pkg/mailer"
	"oraculo-be/internal/repository/specification"
	"oraculo-be/internal/repository/unitofwork"
	"oraculo-be/pkg/events"
	pktNats "oraculo-be/pkg/nats"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAdminService interface {
	ListUsers(ctx context.Context, page, limit int) (*dto.AdminUserListResponse, error)
	CreateUser(ctx context.Context, req *dto.AdminCreateUserRequest) (*dto.AdminUserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *dto.AdminUpdateUserRequest) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	GetLogs(ctx context.Context, level string, limit, offset int) ([]logger.LogEntry, error)
	GetLogById(ctx context.Context, id string) (*logger.LogEntry, error)
}

type adminService struct {
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func toAdminUserResponse(user *entity.User) dto.AdminUserResponse {
	return dto.AdminUserResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
	}
}

func (s *adminService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("AdminService", "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func (s *adminService) ListUsers(ctx context.Context, page, limit int) (*dto.AdminUserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.UserRepository()

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	users, err := repo.FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.AdminUserListResponse{
		Users: make([]dto.AdminUserResponse, 0, len(users)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, user := range users {
		res.Users = append(res.Users, toAdminUserResponse(user))
	}
	return res, nil
}

// CreateUser provisions an account with a generated temporary password and
// mails it to the new user.
func (s *adminService) CreateUser(ctx context.Context, req *dto.AdminCreateUserRequest) (*dto.AdminUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, _ := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	role := entity.UserRoleUser
	if req.Role == string(entity.UserRoleAdmin) {
		role = entity.UserRoleAdmin
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: &hashStr,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	go func() {
		if err := s.emailService.SendTemporaryPassword(user.Email, user.FullName, tempPassword); err != nil {
			s.logger.Error("AdminService", "Failed to mail temporary password", map[string]interface{}{
				"user_id": user.Id.String(),
				"error":   err.Error(),
			})
		}
	}()

	s.publishEvent(ctx, events.UserCreated, map[string]interface{}{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"source":  "admin",
	})

	res := toAdminUserResponse(user)
	return &res, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, req *dto.AdminUpdateUserRequest) (*dto.AdminUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	eventType := events.UserUpdated
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Role != "" {
		user.Role = entity.UserRole(req.Role)
	}
	if req.Status != "" {
		user.Status = entity.UserStatus(req.Status)
		if user.Status == entity.UserStatusBlocked {
			eventType = events.UserBlocked
		}
	}
	user.UpdatedAt = time.Now()

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, eventType, map[string]interface{}{
		"user_id": user.Id.String(),
		"status":  string(user.Status),
	})

	res := toAdminUserResponse(user)
	return &res, nil
}

func (s *adminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	if err := uow.UserRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, events.UserDeleted, map[string]interface{}{
		"user_id": id.String(),
	})
	return nil
}

func (s *adminService) GetLogs(_ context.Context, level string, limit, offset int) ([]logger.LogEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.logger.GetLogs(level, limit, offset)
}

func (s *adminService) GetLogById(_ context.Context, id string) (*logger.LogEntry, error) {
	return s.logger.GetLogById(id)
}
