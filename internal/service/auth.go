package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/blacklist"
	"github.com/vinald/bookapi/internal/hash"
	"github.com/vinald/bookapi/internal/logging"
	"github.com/vinald/bookapi/internal/mail"
	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/mykafka"
	"github.com/vinald/bookapi/internal/tokens"
)

const (
	MinPasswordLen = 8
	ResetTokenTTL  = time.Hour
)

// AuthService owns the session lifecycle: registration, login, refresh
// rotation, revocation and the email-scoped verify/reset tokens.
type AuthService struct {
	DB        *gorm.DB
	Codec     *tokens.Codec
	Blacklist *blacklist.Cache
	Mailer    *mail.Mailer
	Producer  *mykafka.Producer

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || !strings.Contains(req.Email, "@") || len(req.Password) < MinPasswordLen {
		return nil, apperr.ErrValidation
	}

	var existing models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, apperr.ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, apperr.ErrDuplicateUsername
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("password hash failed", "error", err)
		return nil, err
	}

	// Role is forced: public registration can never self-escalate.
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
		IsActive:     true,
		IsVerified:   false,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// The unique constraints close the check-then-insert race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.whichDuplicate(ctx, req.Email)
		}
		return nil, err
	}

	if err := s.sendVerification(ctx, &user); err != nil {
		l.Error("verification email failed", "user", user.UUID, "error", err)
	}
	s.publish(ctx, "user_events", user.UUID, map[string]any{
		"type":     "user_registered",
		"user_id":  user.UUID,
		"username": user.Username,
	})

	return &user, nil
}

func (s *AuthService) whichDuplicate(ctx context.Context, email string) error {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err == nil {
		return apperr.ErrDuplicateEmail
	}
	return apperr.ErrDuplicateUsername
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Same error as a wrong password so accounts can't be enumerated.
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperr.ErrInactiveUser
	}
	if !user.IsVerified {
		return nil, apperr.ErrEmailNotVerified
	}

	pair, err := s.issuePair(&user)
	if err != nil {
		l.Error("token issue failed", "user", user.UUID, "error", err)
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, _, err := s.Codec.Issue(user.UUID, tokens.TypeAccess, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.Codec.Issue(user.UUID, tokens.TypeRefresh, s.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Refresh rotates a refresh token: the presented token's jti is blacklisted
// for its remaining lifetime and a new pair is issued. Two concurrent calls
// with the same token may both succeed once; the window is a single
// round-trip and is accepted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Codec.Decode(refreshToken, tokens.TypeRefresh)
	if err != nil {
		return nil, err
	}
	if s.Blacklist.IsTokenBlacklisted(ctx, claims.ID) {
		return nil, apperr.ErrRevokedToken
	}
	if claims.IssuedAt != nil && s.Blacklist.IsUserBlacklistedBefore(ctx, claims.Subject, claims.IssuedAt.Time) {
		return nil, apperr.ErrRevokedToken
	}

	var user models.User
	err = s.DB.WithContext(ctx).Where("uuid = ?", claims.Subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrInactiveUser
	}

	if claims.ExpiresAt != nil {
		if err := s.Blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			// Rotation still proceeds: availability over strict single-use.
			l.Warn("rotation blacklist write failed", "jti", claims.ID, "error", err)
		}
	}

	return s.issuePair(&user)
}

// Logout revokes the presented access token until its natural expiry. A
// failed cache write surfaces as service-unavailable: a logout that silently
// no-ops would mislead the user.
func (s *AuthService) Logout(ctx context.Context, claims *tokens.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := s.Blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		logging.FromContext(ctx).Error("logout blacklist write failed", "jti", claims.ID, "error", err)
		return apperr.ErrServiceUnavailable
	}
	return nil
}

// LogoutAll sets the user's watermark so every token issued before now is
// rejected, without enumerating tokens. The entry lives as long as the
// longest-lived token it could affect.
func (s *AuthService) LogoutAll(ctx context.Context, userUUID string) error {
	if err := s.Blacklist.BlacklistAllForUser(ctx, userUUID, s.RefreshTTL); err != nil {
		logging.FromContext(ctx).Error("logout-all watermark write failed", "user", userUUID, "error", err)
		return apperr.ErrServiceUnavailable
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.Codec.Decode(token, tokens.TypeVerify)
	if err != nil {
		return err
	}

	var user models.User
	err = s.DB.WithContext(ctx).Where("email = ?", claims.Subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}

	if err := s.DB.WithContext(ctx).Model(&user).Update("is_verified", true).Error; err != nil {
		return err
	}
	s.publish(ctx, "user_events", user.UUID, map[string]any{
		"type":    "user_verified",
		"user_id": user.UUID,
	})
	return nil
}

// ResendVerification always reports success: a response that differed for
// unknown or already-verified addresses would leak which emails have
// accounts.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil || user.IsVerified {
		return nil
	}
	if err := s.sendVerification(ctx, &user); err != nil {
		logging.FromContext(ctx).Error("verification email failed", "user", user.UUID, "error", err)
	}
	return nil
}

// ForgotPassword issues a one-hour reset token scoped to the email address.
// Unknown addresses get the same success response.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil
	}

	token, _, err := s.Codec.Issue(user.Email, tokens.TypeReset, ResetTokenTTL)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordResetEmail(ctx, user.Email, user.Username, token); err != nil {
		logging.FromContext(ctx).Error("reset email failed", "user", user.UUID, "error", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.Codec.Decode(token, tokens.TypeReset)
	if err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLen {
		return apperr.ErrValidation
	}

	var user models.User
	err = s.DB.WithContext(ctx).Where("email = ?", claims.Subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrUserNotFound
	}
	if err != nil {
		return err
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(&user).Update("password_hash", pwHash).Error; err != nil {
		return err
	}

	// Existing sessions die with the old password. Best effort: the
	// password change itself already succeeded.
	if err := s.Blacklist.BlacklistAllForUser(ctx, user.UUID, s.RefreshTTL); err != nil {
		logging.FromContext(ctx).Warn("post-reset watermark write failed", "user", user.UUID, "error", err)
	}
	return nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User) error {
	token, _, err := s.Codec.Issue(user.Email, tokens.TypeVerify, s.VerifyTTL)
	if err != nil {
		return err
	}
	return s.Mailer.SendVerificationEmail(ctx, user.Email, user.Username, token)
}

func (s *AuthService) publish(ctx context.Context, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}
