package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser("Admin", "secret1234", "管理者", UserRoleAdmin)
		require.NoError(t, err)

		assert.Equal(t, "admin", user.Username)
		assert.True(t, user.IsActive)
		assert.True(t, user.IsAdmin())
		assert.NotEqual(t, "secret1234", user.PasswordHash)
		assert.True(t, user.VerifyPassword("secret1234"))
		assert.False(t, user.VerifyPassword("wrong-password"))
	})

	t.Run("rejects short username", func(t *testing.T) {
		_, err := NewUser("ab", "secret1234", "", UserRoleStaff)
		assert.Error(t, err)
	})

	t.Run("rejects password without digits", func(t *testing.T) {
		_, err := NewUser("staff", "passwordonly", "", UserRoleStaff)
		assert.Error(t, err)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := NewUser("staff", "secret1234", "", UserRole("manager"))
		assert.Error(t, err)
	})
}

func TestUserPassword(t *testing.T) {
	t.Run("set password replaces hash", func(t *testing.T) {
		user, _ := NewUser("staff", "secret1234", "", UserRoleStaff)
		require.NoError(t, user.SetPassword("another5678"))
		assert.True(t, user.VerifyPassword("another5678"))
		assert.False(t, user.VerifyPassword("secret1234"))
	})

	t.Run("rejects weak replacement", func(t *testing.T) {
		user, _ := NewUser("staff", "secret1234", "", UserRoleStaff)
		assert.Error(t, user.SetPassword("short1"))
	})
}

func TestUserLifecycle(t *testing.T) {
	t.Run("deactivate blocks reactivation mismatch", func(t *testing.T) {
		user, _ := NewUser("staff", "secret1234", "", UserRoleStaff)
		require.NoError(t, user.Deactivate())
		assert.False(t, user.IsActive)
		assert.Error(t, user.Deactivate())
		require.NoError(t, user.Activate())
	})

	t.Run("record login stamps time", func(t *testing.T) {
		user, _ := NewUser("staff", "secret1234", "", UserRoleStaff)
		require.Nil(t, user.LastLoginAt)
		user.RecordLogin()
		require.NotNil(t, user.LastLoginAt)
	})

	t.Run("display name fallback", func(t *testing.T) {
		user, _ := NewUser("staff", "secret1234", "", UserRoleStaff)
		assert.Equal(t, "staff", user.GetDisplayNameOrUsername())
		require.NoError(t, user.SetDisplayName("スタッフ"))
		assert.Equal(t, "スタッフ", user.GetDisplayNameOrUsername())
	})
}
