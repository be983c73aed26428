package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"-"`
	UUID         string    `gorm:"uniqueIndex;not null"      json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `gorm:"not null;default:user"     json:"role"`
	IsActive     bool      `gorm:"not null;default:true"     json:"is_active"`
	IsVerified   bool      `gorm:"not null;default:false"    json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Reviews []Review `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == "" {
		u.UUID = uuid.NewString()
	}
	return nil
}

type Book struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID        string    `gorm:"uniqueIndex;not null"     json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Author      string    `gorm:"not null"                 json:"author"`
	Publisher   string    `json:"publisher"`
	PublishDate string    `json:"publish_date"`
	Pages       int       `json:"pages"`
	Language    string    `json:"language"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Reviews []Review `gorm:"foreignKey:BookID" json:"-"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == "" {
		b.UUID = uuid.NewString()
	}
	return nil
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                   json:"-"`
	UUID      string    `gorm:"uniqueIndex;not null"                       json:"id"`
	Content   string    `gorm:"size:1000;not null"                         json:"content"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	UserID    uint      `gorm:"index:idx_review_user_book,unique;not null" json:"-"`
	BookID    uint      `gorm:"index:idx_review_user_book,unique;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reviewer *User `gorm:"foreignKey:UserID" json:"reviewer,omitempty"`
	Book     *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	return nil
}

// RoleAtLeast reports whether role meets the required threshold in the
// admin > moderator > user hierarchy.
func RoleAtLeast(role, required string) bool {
	rank := map[string]int{RoleUser: 1, RoleModerator: 2, RoleAdmin: 3}
	return rank[role] >= rank[required]
}
