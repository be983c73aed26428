package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinald/bookapi/internal/models"
)

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "alice@example.com", "password123", models.RoleUser, true)
	access, _ := env.login("alice@example.com", "password123")

	rec := env.do(http.MethodPatch, "/api/v1/users/me", access, map[string]string{
		"first_name": "Alice",
		"last_name":  "Liddell",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.User
	env.decode(rec, &updated)
	require.Equal(t, "Alice", updated.FirstName)
	require.Equal(t, "Liddell", updated.LastName)

	// Changing the address revokes verified status until re-verified.
	rec = env.do(http.MethodPatch, "/api/v1/users/me", access, map[string]string{
		"email": "alice.new@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.User
	require.NoError(t, env.DB.First(&got, user.ID).Error)
	require.Equal(t, "alice.new@example.com", got.Email)
	require.False(t, got.IsVerified)
}

func TestUpdateProfileDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "alice@example.com", "password123", models.RoleUser, true)
	env.createUser("bob", "bob@example.com", "password123", models.RoleUser, true)
	access, _ := env.login("alice@example.com", "password123")

	rec := env.do(http.MethodPatch, "/api/v1/users/me", access, map[string]string{
		"username": "bob",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "alice@example.com", "password123", models.RoleUser, true)
	access, _ := env.login("alice@example.com", "password123")

	rec := env.do(http.MethodDelete, "/api/v1/users/me", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestUserLookup(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser("alice", "alice@example.com", "password123", models.RoleUser, true)
	env.createUser("bob", "bob@example.com", "password123", models.RoleUser, true)
	env.createUser("root", "root@example.com", "password123", models.RoleAdmin, true)
	access, _ := env.login("bob@example.com", "password123")
	adminAccess, _ := env.login("root@example.com", "password123")

	rec := env.do(http.MethodGet, "/api/v1/users/"+alice.UUID, access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	env.decode(rec, &got)
	require.Equal(t, "alice", got.Username)

	rec = env.do(http.MethodGet, "/api/v1/users/unknown-uuid", access, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Listing and email lookup are admin surfaces.
	rec = env.do(http.MethodGet, "/api/v1/users", access, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(http.MethodGet, "/api/v1/users/email/alice@example.com", access, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/users", adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodGet, "/api/v1/users/email/alice@example.com", adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("root", "root@example.com", "password123", models.RoleAdmin, true)
	env.createUser("alice", "alice@example.com", "password123", models.RoleUser, true)
	adminAccess, _ := env.login("root@example.com", "password123")
	userAccess, _ := env.login("alice@example.com", "password123")

	// Ordinary users cannot reach the admin surface.
	rec := env.do(http.MethodPost, "/api/v1/admin/users", userAccess, map[string]interface{}{
		"username": "eve", "email": "eve@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/admin/users", adminAccess, map[string]interface{}{
		"username": "mod",
		"email":    "mod@example.com",
		"password": "password123",
		"role":     models.RoleModerator,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.User
	env.decode(rec, &created)
	require.Equal(t, models.RoleModerator, created.Role)
	require.True(t, created.IsVerified)

	// Admin-created accounts can log in straight away.
	env.login("mod@example.com", "password123")

	rec = env.do(http.MethodPatch, "/api/v1/admin/users/"+created.UUID, adminAccess, map[string]interface{}{
		"role": models.RoleUser,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var demoted models.User
	env.decode(rec, &demoted)
	require.Equal(t, models.RoleUser, demoted.Role)

	rec = env.do(http.MethodDelete, "/api/v1/admin/users/"+created.UUID, adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/users/"+created.UUID, adminAccess, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
