package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/logging"
	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/mykafka"
)

type BookService struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Index    string
	Producer *mykafka.Producer
}

type BookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Publisher   *string `json:"publisher"`
	PublishDate *string `json:"publish_date"`
	Pages       *int    `json:"pages"`
	Language    *string `json:"language"`
	Description *string `json:"description"`
}

func (s *BookService) List(ctx context.Context, offset, limit int) ([]models.Book, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var books []models.Book
	err := s.DB.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&books).Error
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (s *BookService) Get(ctx context.Context, bookUUID string) (*models.Book, error) {
	var book models.Book
	err := s.DB.WithContext(ctx).Where("uuid = ?", bookUUID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (s *BookService) Create(ctx context.Context, req BookRequest) (*models.Book, error) {
	if req.Title == nil || *req.Title == "" || req.Author == nil || *req.Author == "" {
		return nil, apperr.ErrValidation
	}

	book := models.Book{
		Title:  *req.Title,
		Author: *req.Author,
	}
	if req.Publisher != nil {
		book.Publisher = *req.Publisher
	}
	if req.PublishDate != nil {
		pd, err := normalizeDate(*req.PublishDate)
		if err != nil {
			return nil, apperr.ErrValidation
		}
		book.PublishDate = pd
	}
	if req.Pages != nil {
		if *req.Pages < 0 {
			return nil, apperr.ErrValidation
		}
		book.Pages = *req.Pages
	}
	if req.Language != nil {
		book.Language = *req.Language
	}
	if req.Description != nil {
		book.Description = *req.Description
	}

	if err := s.DB.WithContext(ctx).Create(&book).Error; err != nil {
		return nil, err
	}

	s.index(ctx, &book)
	s.publish(ctx, book.UUID, map[string]any{"type": "book_created", "book_id": book.UUID, "title": book.Title})
	return &book, nil
}

func (s *BookService) Update(ctx context.Context, bookUUID string, req BookRequest) (*models.Book, error) {
	var updated models.Book
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Where("uuid = ?", bookUUID).First(&book).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrBookNotFound
			}
			return err
		}

		if req.Title != nil {
			if *req.Title == "" {
				return apperr.ErrValidation
			}
			book.Title = *req.Title
		}
		if req.Author != nil {
			if *req.Author == "" {
				return apperr.ErrValidation
			}
			book.Author = *req.Author
		}
		if req.Publisher != nil {
			book.Publisher = *req.Publisher
		}
		if req.PublishDate != nil {
			pd, err := normalizeDate(*req.PublishDate)
			if err != nil {
				return apperr.ErrValidation
			}
			book.PublishDate = pd
		}
		if req.Pages != nil {
			if *req.Pages < 0 {
				return apperr.ErrValidation
			}
			book.Pages = *req.Pages
		}
		if req.Language != nil {
			book.Language = *req.Language
		}
		if req.Description != nil {
			book.Description = *req.Description
		}

		if err := tx.Save(&book).Error; err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, &updated)
	s.publish(ctx, updated.UUID, map[string]any{"type": "book_updated", "book_id": updated.UUID, "title": updated.Title})
	return &updated, nil
}

func (s *BookService) Delete(ctx context.Context, bookUUID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Where("uuid = ?", bookUUID).First(&book).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrBookNotFound
			}
			return err
		}
		if err := tx.Where("book_id = ?", book.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&book).Error
	})
	if err != nil {
		return err
	}

	s.deindex(ctx, bookUUID)
	s.publish(ctx, bookUUID, map[string]any{"type": "book_deleted", "book_id": bookUUID})
	return nil
}

// normalizeDate accepts an ISO date or datetime and stores the date part.
func normalizeDate(v string) (string, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
		return t.Format("2006-01-02"), nil
	}
	return "", errors.New("publish_date must be an ISO date or datetime")
}

func (s *BookService) index(ctx context.Context, book *models.Book) {
	if s.ES == nil {
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(book); err != nil {
		logging.FromContext(ctx).Error("es encode error", "book", book.UUID, "error", err)
		return
	}
	res, err := s.ES.Index(
		s.Index,
		&buf,
		s.ES.Index.WithDocumentID(book.UUID),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		logging.FromContext(ctx).Error("es index error", "book", book.UUID, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		logging.FromContext(ctx).Error("es index error", "book", book.UUID, "status", res.Status())
	}
}

func (s *BookService) deindex(ctx context.Context, bookUUID string) {
	if s.ES == nil {
		return
	}
	res, err := s.ES.Delete(s.Index, bookUUID, s.ES.Delete.WithContext(ctx))
	if err != nil {
		logging.FromContext(ctx).Error("es delete error", "book", bookUUID, "error", err)
		return
	}
	res.Body.Close()
}

func (s *BookService) publish(ctx context.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, "book_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", "book_events", "error", err)
	}
}
