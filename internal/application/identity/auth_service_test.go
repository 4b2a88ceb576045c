package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/identity"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/auth"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-minimum-32-chars!!",
		RefreshSecret:          "test-refresh-key-minimum-32-chars!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "backoffice-test",
		MaxRefreshCount:        2,
	})
}

func newTestUser(t *testing.T, username, password string, role identity.UserRole) *identity.User {
	t.Helper()
	user, err := identity.NewUser(username, password, "", role)
	require.NoError(t, err)
	return user
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login returns token pair and user info", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleAdmin)

		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		service := NewAuthService(userRepo, newTestJWTService(), auth.NewInMemoryTokenBlacklist(), zap.NewNop())
		result, err := service.Login(ctx, LoginInput{Username: "tanaka", Password: "password1"})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, "admin", result.User.Role)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("username lookup is trimmed and lower-cased", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)

		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		_, err := service.Login(ctx, LoginInput{Username: "  Tanaka ", Password: "password1"})

		require.NoError(t, err)
		userRepo.AssertCalled(t, "FindByUsername", ctx, "tanaka")
	})

	t.Run("unknown user yields generic credentials error", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("FindByUsername", ctx, "ghost").Return(nil, shared.ErrNotFound)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		_, err := service.Login(ctx, LoginInput{Username: "ghost", Password: "password1"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	})

	t.Run("wrong password yields same generic error", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		_, err := service.Login(ctx, LoginInput{Username: "tanaka", Password: "wrongpass1"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		require.NoError(t, user.Deactivate())
		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		_, err := service.Login(ctx, LoginInput{Username: "tanaka", Password: "password1"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ACCOUNT_DEACTIVATED", domainErr.Code)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, service *AuthService, user *identity.User) *LoginResult {
		t.Helper()
		result, err := service.Login(ctx, LoginInput{Username: user.Username, Password: "password1"})
		require.NoError(t, err)
		return result
	}

	t.Run("valid refresh token yields a new pair", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		service := NewAuthService(userRepo, newTestJWTService(), auth.NewInMemoryTokenBlacklist(), zap.NewNop())
		loginResult := login(t, service, user)

		result, err := service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: loginResult.RefreshToken})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
	})

	t.Run("access token is rejected as refresh token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		loginResult := login(t, service, user)

		_, err := service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: loginResult.AccessToken})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
	})

	t.Run("deactivated user cannot refresh", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		loginResult := login(t, service, user)

		require.NoError(t, user.Deactivate())

		_, err := service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: loginResult.RefreshToken})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ACCOUNT_DEACTIVATED", domainErr.Code)
	})

	t.Run("refresh is refused after user-wide token revocation", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		userRepo.On("FindByUsername", ctx, "tanaka").Return(user, nil)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		blacklist := auth.NewInMemoryTokenBlacklist()
		service := NewAuthService(userRepo, newTestJWTService(), blacklist, zap.NewNop())
		loginResult := login(t, service, user)

		require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), time.Hour))

		_, err := service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: loginResult.RefreshToken})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("logout blacklists the access token jti", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		service := NewAuthService(new(MockUserRepository), newTestJWTService(), blacklist, zap.NewNop())

		jti := uuid.New().String()
		err := service.Logout(ctx, LogoutInput{
			UserID:         uuid.New(),
			TokenJTI:       jti,
			TokenExpiresAt: time.Now().Add(10 * time.Minute),
		})

		require.NoError(t, err)
		blacklisted, err := blacklist.IsBlacklisted(ctx, jti)
		require.NoError(t, err)
		assert.True(t, blacklisted)
	})

	t.Run("already expired token is not blacklisted", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		service := NewAuthService(new(MockUserRepository), newTestJWTService(), blacklist, zap.NewNop())

		jti := uuid.New().String()
		err := service.Logout(ctx, LogoutInput{
			UserID:         uuid.New(),
			TokenJTI:       jti,
			TokenExpiresAt: time.Now().Add(-time.Minute),
		})

		require.NoError(t, err)
		blacklisted, err := blacklist.IsBlacklisted(ctx, jti)
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password is rejected", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		err := service.ChangePassword(ctx, ChangePasswordInput{
			UserID:      user.ID,
			OldPassword: "nottheone1",
			NewPassword: "newsecret1",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_OLD_PASSWORD", domainErr.Code)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("successful change revokes existing sessions", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleStaff)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		blacklist := auth.NewInMemoryTokenBlacklist()
		service := NewAuthService(userRepo, newTestJWTService(), blacklist, zap.NewNop())
		err := service.ChangePassword(ctx, ChangePasswordInput{
			UserID:      user.ID,
			OldPassword: "password1",
			NewPassword: "newsecret1",
		})

		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("newsecret1"))

		invalidated, err := blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Second))
		require.NoError(t, err)
		assert.True(t, invalidated)
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns user info", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := newTestUser(t, "tanaka", "password1", identity.UserRoleAdmin)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		result, err := service.GetCurrentUser(ctx, GetCurrentUserInput{UserID: user.ID})

		require.NoError(t, err)
		assert.Equal(t, "tanaka", result.User.Username)
		assert.Equal(t, "admin", result.User.Role)
	})

	t.Run("unknown user", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		id := uuid.New()
		userRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		service := NewAuthService(userRepo, newTestJWTService(), nil, zap.NewNop())
		_, err := service.GetCurrentUser(ctx, GetCurrentUserInput{UserID: id})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "USER_NOT_FOUND", domainErr.Code)
	})
}
