package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/hash"
	"github.com/vinald/bookapi/internal/logging"
	"github.com/vinald/bookapi/internal/mail"
	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/mykafka"
	"github.com/vinald/bookapi/internal/tokens"
)

type UserService struct {
	DB       *gorm.DB
	Codec    *tokens.Codec
	Mailer   *mail.Mailer
	Producer *mykafka.Producer

	VerifyTTL time.Duration
}

type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type AdminUserRequest struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Role       *string `json:"role"`
	IsActive   *bool   `json:"is_active"`
	IsVerified *bool   `json:"is_verified"`
}

func (s *UserService) GetByUUID(ctx context.Context, userUUID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Preload("Reviews").Where("uuid = ?", userUUID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := s.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateProfile applies a user's own edits. Changing the email clears the
// verified flag and sends a fresh verification link to the new address.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, req UpdateProfileRequest) (*models.User, error) {
	emailChanged := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.User
		if err := tx.Where("id = ?", user.ID).First(&current).Error; err != nil {
			return err
		}

		if req.Username != nil && *req.Username != current.Username {
			username := strings.TrimSpace(*req.Username)
			if username == "" {
				return apperr.ErrValidation
			}
			var other models.User
			if err := tx.Where("username = ? AND id <> ?", username, current.ID).First(&other).Error; err == nil {
				return apperr.ErrDuplicateUsername
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			current.Username = username
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if email != current.Email {
				if !strings.Contains(email, "@") {
					return apperr.ErrValidation
				}
				var other models.User
				if err := tx.Where("email = ? AND id <> ?", email, current.ID).First(&other).Error; err == nil {
					return apperr.ErrDuplicateEmail
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				current.Email = email
				current.IsVerified = false
				emailChanged = true
			}
		}
		if req.FirstName != nil {
			current.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			current.LastName = *req.LastName
		}

		if err := tx.Save(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrDuplicateEmail
			}
			return err
		}
		*user = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if emailChanged {
		token, _, err := s.Codec.Issue(user.Email, tokens.TypeVerify, s.VerifyTTL)
		if err == nil {
			err = s.Mailer.SendVerificationEmail(ctx, user.Email, user.Username, token)
		}
		if err != nil {
			logging.FromContext(ctx).Error("verification email failed", "user", user.UUID, "error", err)
		}
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, userUUID string) error {
	res := s.DB.WithContext(ctx).Where("uuid = ?", userUUID).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}
	s.publish(ctx, userUUID, map[string]any{"type": "user_deleted", "user_id": userUUID})
	return nil
}

// AdminCreate builds a user with any role; unlike public registration the
// account starts verified.
func (s *UserService) AdminCreate(ctx context.Context, req AdminUserRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || !strings.Contains(req.Email, "@") || len(req.Password) < MinPasswordLen {
		return nil, apperr.ErrValidation
	}
	role := models.RoleUser
	if req.Role != nil {
		role = *req.Role
		if role != models.RoleAdmin && role != models.RoleModerator && role != models.RoleUser {
			return nil, apperr.ErrValidation
		}
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var u models.User
			if err := s.DB.WithContext(ctx).Where("email = ?", req.Email).First(&u).Error; err == nil {
				return nil, apperr.ErrDuplicateEmail
			}
			return nil, apperr.ErrDuplicateUsername
		}
		return nil, err
	}
	s.publish(ctx, user.UUID, map[string]any{"type": "user_created", "user_id": user.UUID, "role": user.Role})
	return &user, nil
}

func (s *UserService) AdminUpdate(ctx context.Context, userUUID string, req AdminUserRequest) (*models.User, error) {
	var updated models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("uuid = ?", userUUID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrUserNotFound
			}
			return err
		}

		if req.Username != "" {
			user.Username = req.Username
		}
		if req.Email != "" {
			user.Email = strings.ToLower(req.Email)
		}
		if req.FirstName != "" {
			user.FirstName = req.FirstName
		}
		if req.LastName != "" {
			user.LastName = req.LastName
		}
		if req.Role != nil {
			if *req.Role != models.RoleAdmin && *req.Role != models.RoleModerator && *req.Role != models.RoleUser {
				return apperr.ErrValidation
			}
			user.Role = *req.Role
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.IsVerified != nil {
			user.IsVerified = *req.IsVerified
		}
		if req.Password != "" {
			if len(req.Password) < MinPasswordLen {
				return apperr.ErrValidation
			}
			pwHash, err := hash.HashPassword(req.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = pwHash
		}

		if err := tx.Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrDuplicateEmail
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, updated.UUID, map[string]any{"type": "user_updated", "user_id": updated.UUID})
	return &updated, nil
}

func (s *UserService) publish(ctx context.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", "user_events", "error", err)
	}
}
