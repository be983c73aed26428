package service

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/blacklist"
	"github.com/vinald/bookapi/internal/hash"
	"github.com/vinald/bookapi/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A second in-memory connection would see an empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Book{}, &models.Review{}))
	return db
}

func newTestBlacklist(t *testing.T) (*blacklist.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return blacklist.New(rdb), mr
}

func createUser(t *testing.T, db *gorm.DB, username, email, password, role string, verified bool) *models.User {
	t.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
		IsActive:     true,
		IsVerified:   verified,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createBook(t *testing.T, db *gorm.DB, title, author string) *models.Book {
	t.Helper()
	book := models.Book{Title: title, Author: author}
	require.NoError(t, db.Create(&book).Error)
	return &book
}
