package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/tokens"
)

// signBackdated signs a token with an issued-at in the past, for exercising
// the per-user revocation watermark.
func signBackdated(t *testing.T, subject, typ string, issuedAt time.Time) string {
	t.Helper()
	claims := tokens.Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

// TestAccountLifecycle walks a fresh account through registration, the
// unverified login wall, verification, login, token refresh with rotation
// and logout.
func TestAccountLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.User
	env.decode(rec, &created)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, models.RoleUser, created.Role)
	require.Empty(t, created.PasswordHash)

	// Wrong password and unverified email fail differently.
	rec = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	verifyToken, _, err := env.Codec.Issue("alice@example.com", tokens.TypeVerify, time.Hour)
	require.NoError(t, err)
	rec = env.do(http.MethodPost, "/api/v1/auth/verify-email", "", map[string]string{"token": verifyToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	access, refresh := env.login("alice@example.com", "password123")

	rec = env.do(http.MethodGet, "/api/v1/users/me", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	env.decode(rec, &me)
	require.Equal(t, "alice", me.Username)

	// Refresh rotates: the new pair works, the old refresh token does not.
	rec = env.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	var next struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	env.decode(rec, &next)
	require.NotEqual(t, refresh, next.RefreshToken)

	rec = env.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/users/me", access, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "alice@example.com", "password123", models.RoleUser, true)

	rec := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "other",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterShortPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "short",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAllEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "alice@example.com", "password123", models.RoleUser, true)
	access, _ := env.login("alice@example.com", "password123")

	// A session from an hour ago, well behind the watermark.
	oldAccess := signBackdated(t, user.UUID, tokens.TypeAccess, time.Now().Add(-time.Hour))
	rec := env.do(http.MethodGet, "/api/v1/users/me", oldAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/auth/logout-all", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/users/me", oldAccess, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "alice@example.com", "oldpassword1", models.RoleUser, true)

	// Uniform response for unknown addresses.
	rec := env.do(http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	unknownBody := rec.Body.String()

	rec = env.do(http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, unknownBody, rec.Body.String())

	resetToken, _, err := env.Codec.Issue("alice@example.com", tokens.TypeReset, time.Hour)
	require.NoError(t, err)

	rec = env.do(http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{
		"token": resetToken, "new_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "oldpassword1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env.login("alice@example.com", "newpassword1")
}

func TestVerifyEmailViaQueryParam(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "alice@example.com", "password123", models.RoleUser, false)

	verifyToken, _, err := env.Codec.Issue("alice@example.com", tokens.TypeVerify, time.Hour)
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/api/v1/auth/verify-email?token="+verifyToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.User
	require.NoError(t, env.DB.First(&got, user.ID).Error)
	require.True(t, got.IsVerified)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
