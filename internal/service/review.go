package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/logging"
	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/mykafka"
)

type ReviewService struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type ReviewRequest struct {
	Content *string `json:"content"`
	Rating  *int    `json:"rating"`
}

func (s *ReviewService) ListAll(ctx context.Context, offset, limit int) ([]models.Review, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reviews []models.Review
	err := s.DB.WithContext(ctx).Preload("Reviewer").Preload("Book").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) Get(ctx context.Context, reviewUUID string) (*models.Review, error) {
	var review models.Review
	err := s.DB.WithContext(ctx).Preload("Reviewer").Preload("Book").
		Where("uuid = ?", reviewUUID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *ReviewService) ListByBook(ctx context.Context, bookUUID string) ([]models.Review, error) {
	var book models.Book
	if err := s.DB.WithContext(ctx).Where("uuid = ?", bookUUID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrBookNotFound
		}
		return nil, err
	}
	var reviews []models.Review
	err := s.DB.WithContext(ctx).Preload("Reviewer").
		Where("book_id = ?", book.ID).Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userUUID string) ([]models.Review, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("uuid = ?", userUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	var reviews []models.Review
	err := s.DB.WithContext(ctx).Preload("Book").
		Where("user_id = ?", user.ID).Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *ReviewService) ListMine(ctx context.Context, user *models.User) ([]models.Review, error) {
	var reviews []models.Review
	err := s.DB.WithContext(ctx).Preload("Book").
		Where("user_id = ?", user.ID).Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *ReviewService) Create(ctx context.Context, bookUUID string, actor *models.User, req ReviewRequest) (*models.Review, error) {
	if req.Content == nil || *req.Content == "" || len(*req.Content) > 1000 ||
		req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
		return nil, apperr.ErrValidation
	}

	var created models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Where("uuid = ?", bookUUID).First(&book).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrBookNotFound
			}
			return err
		}

		var existing models.Review
		err := tx.Where("book_id = ? AND user_id = ?", book.ID, actor.ID).First(&existing).Error
		if err == nil {
			return apperr.ErrDuplicateReview
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		review := models.Review{
			Content: *req.Content,
			Rating:  *req.Rating,
			UserID:  actor.ID,
			BookID:  book.ID,
		}
		if err := tx.Create(&review).Error; err != nil {
			// The unique (user, book) index closes the check-then-insert race.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrDuplicateReview
			}
			return err
		}
		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, created.UUID, map[string]any{
		"type":      "review_created",
		"review_id": created.UUID,
		"book_id":   bookUUID,
		"user_id":   actor.UUID,
		"rating":    created.Rating,
	})
	return &created, nil
}

// Update applies an owner's edits. Ownership is checked by the handler via
// Authorize; the service re-reads inside the transaction so concurrent
// updates can't lose writes.
func (s *ReviewService) Update(ctx context.Context, reviewUUID string, actor *models.User, req ReviewRequest) (*models.Review, error) {
	var updated models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Where("uuid = ?", reviewUUID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrReviewNotFound
			}
			return err
		}
		if err := Authorize(actor, review.UserID, ""); err != nil {
			return err
		}

		if req.Content != nil {
			if *req.Content == "" || len(*req.Content) > 1000 {
				return apperr.ErrValidation
			}
			review.Content = *req.Content
		}
		if req.Rating != nil {
			if *req.Rating < 1 || *req.Rating > 5 {
				return apperr.ErrValidation
			}
			review.Rating = *req.Rating
		}

		if err := tx.Save(&review).Error; err != nil {
			return err
		}
		updated = review
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated.UUID, map[string]any{"type": "review_updated", "review_id": updated.UUID})
	return &updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, reviewUUID string, actor *models.User) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Where("uuid = ?", reviewUUID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrReviewNotFound
			}
			return err
		}
		if err := Authorize(actor, review.UserID, models.RoleModerator); err != nil {
			return err
		}
		return tx.Delete(&review).Error
	})
	if err != nil {
		return err
	}

	s.publish(ctx, reviewUUID, map[string]any{"type": "review_deleted", "review_id": reviewUUID})
	return nil
}

func (s *ReviewService) publish(ctx context.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, "review_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", "review_events", "error", err)
	}
}
