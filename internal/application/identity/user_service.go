package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/identity"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityTypeUser = "user"

// userTokenRevokeTTL matches the default refresh token lifetime so the
// revocation marker outlives outstanding tokens.
const userTokenRevokeTTL = 168 * time.Hour

// UserService handles user management operations
type UserService struct {
	userRepo    identity.UserRepository
	historyRepo audit.OperationHistoryRepository
	blacklist   auth.TokenBlacklist
	logger      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	historyRepo audit.OperationHistoryRepository,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		historyRepo: historyRepo,
		blacklist:   blacklist,
		logger:      logger,
	}
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, input CreateUserInput, actor audit.Actor) (*UserDTO, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	s.logger.Info("Creating user", zap.String("username", username))

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Username %s is already taken", username))
	}

	user, err := identity.NewUser(input.Username, input.Password, input.DisplayName, identity.UserRole(input.Role))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, user.ID, audit.OperationActionCreated,
		fmt.Sprintf("user %s (%s) created", user.Username, user.Role), actor)

	dto := toUserDTO(user)
	return &dto, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// List retrieves users matching the filter
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*UserListResult, error) {
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.PageSize <= 0 {
		input.PageSize = 20
	}

	filter := shared.Filter{
		Page:     input.Page,
		PageSize: input.PageSize,
		OrderBy:  "username",
		OrderDir: "asc",
		Search:   input.Search,
		Filters:  make(map[string]interface{}),
	}
	if input.IsActive != nil {
		filter.Filters["is_active"] = *input.IsActive
	}

	users, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}

	return &UserListResult{
		Users:    dtos,
		Total:    total,
		Page:     input.Page,
		PageSize: input.PageSize,
	}, nil
}

// Update updates a user's display name or role
func (s *UserService) Update(ctx context.Context, userID uuid.UUID, input UpdateUserInput, actor audit.Actor) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		if err := user.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}
	if input.Role != nil {
		if err := user.SetRole(identity.UserRole(*input.Role)); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, user.ID, audit.OperationActionUpdated,
		fmt.Sprintf("user %s updated", user.Username), actor)

	dto := toUserDTO(user)
	return &dto, nil
}

// Deactivate blocks a user from logging in and revokes their sessions
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID, actor audit.Actor) (*UserDTO, error) {
	if actor.ID != nil && *actor.ID == userID {
		return nil, shared.NewDomainError("CANNOT_MODIFY_SELF", "You cannot deactivate your own account")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.revokeUserTokens(ctx, user.ID)

	s.recordHistory(ctx, user.ID, audit.OperationActionUpdated,
		fmt.Sprintf("user %s deactivated", user.Username), actor)

	dto := toUserDTO(user)
	return &dto, nil
}

// Activate re-enables a user
func (s *UserService) Activate(ctx context.Context, userID uuid.UUID, actor audit.Actor) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Activate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, user.ID, audit.OperationActionUpdated,
		fmt.Sprintf("user %s activated", user.Username), actor)

	dto := toUserDTO(user)
	return &dto, nil
}

// ResetPassword sets a new password for a user and revokes their sessions
func (s *UserService) ResetPassword(ctx context.Context, userID uuid.UUID, input ResetPasswordInput, actor audit.Actor) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	s.revokeUserTokens(ctx, user.ID)

	s.recordHistory(ctx, user.ID, audit.OperationActionUpdated,
		fmt.Sprintf("password reset for user %s", user.Username), actor)
	return nil
}

// Delete removes a user
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID, actor audit.Actor) error {
	if actor.ID != nil && *actor.ID == userID {
		return shared.NewDomainError("CANNOT_MODIFY_SELF", "You cannot delete your own account")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.revokeUserTokens(ctx, user.ID)

	s.recordHistory(ctx, user.ID, audit.OperationActionDeleted,
		fmt.Sprintf("user %s deleted", user.Username), actor)
	return nil
}

func (s *UserService) revokeUserTokens(ctx context.Context, userID uuid.UUID) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), userTokenRevokeTTL); err != nil {
		s.logger.Error("Failed to revoke user tokens",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// recordHistory appends an operation history record. The business change is
// already persisted at this point, so a failed append is logged and swallowed.
func (s *UserService) recordHistory(ctx context.Context, userID uuid.UUID, action audit.OperationAction, detail string, actor audit.Actor) {
	if s.historyRepo == nil {
		return
	}
	record, err := audit.NewOperationRecord(entityTypeUser, userID, action, detail)
	if err == nil {
		err = s.historyRepo.Append(ctx, record.Attribute(actor))
	}
	if err != nil {
		s.logger.Warn("Failed to record operation history",
			zap.String("entity_type", entityTypeUser),
			zap.String("entity_id", userID.String()),
			zap.Error(err))
	}
}

func toUserDTO(user *identity.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		Version:     user.Version,
	}
}
