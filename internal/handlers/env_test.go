package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/blacklist"
	"github.com/vinald/bookapi/internal/config"
	"github.com/vinald/bookapi/internal/handlers"
	"github.com/vinald/bookapi/internal/hash"
	"github.com/vinald/bookapi/internal/mail"
	authmw "github.com/vinald/bookapi/internal/middleware/auth"
	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/mykafka"
	"github.com/vinald/bookapi/internal/service"
	"github.com/vinald/bookapi/internal/tokens"
	httpserver "github.com/vinald/bookapi/internal/transport/http"
)

type testEnv struct {
	T     *testing.T
	E     *echo.Echo
	DB    *gorm.DB
	MR    *miniredis.Miniredis
	Codec *tokens.Codec
	Auth  *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Book{}, &models.Review{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cache := blacklist.New(rdb)

	codec, err := tokens.NewCodec([]byte("test-secret"), "HS256")
	require.NoError(t, err)

	mailer := mail.New(&config.Config{})
	prod := &mykafka.Producer{}

	authSvc := &service.AuthService{
		DB:         db,
		Codec:      codec,
		Blacklist:  cache,
		Mailer:     mailer,
		Producer:   prod,
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		VerifyTTL:  24 * time.Hour,
	}
	userSvc := &service.UserService{DB: db, Codec: codec, Mailer: mailer, Producer: prod, VerifyTTL: 24 * time.Hour}
	bookSvc := &service.BookService{DB: db, Producer: prod}
	reviewSvc := &service.ReviewService{DB: db, Producer: prod}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		DB:            db,
		Redis:         rdb,
		Auth:          &authmw.Middleware{DB: db, Codec: codec, Blacklist: cache},
		AuthHandler:   &handlers.AuthHandler{Auth: authSvc},
		UserHandler:   &handlers.UserHandler{Users: userSvc, Reviews: reviewSvc},
		AdminHandler:  &handlers.AdminHandler{Users: userSvc},
		BookHandler:   &handlers.BookHandler{Books: bookSvc},
		ReviewHandler: &handlers.ReviewHandler{Reviews: reviewSvc},
		SearchHandler: &handlers.SearchHandler{},
	})

	return &testEnv{T: t, E: e, DB: db, MR: mr, Codec: codec, Auth: authSvc}
}

func (env *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) decode(rec *httptest.ResponseRecorder, out interface{}) {
	env.T.Helper()
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), out))
}

func (env *testEnv) createUser(username, email, password, role string, verified bool) *models.User {
	env.T.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
		IsActive:     true,
		IsVerified:   verified,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) login(email, password string) (string, string) {
	env.T.Helper()
	rec := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	env.decode(rec, &pair)
	require.NotEmpty(env.T, pair.AccessToken)
	require.NotEmpty(env.T, pair.RefreshToken)
	return pair.AccessToken, pair.RefreshToken
}

func (env *testEnv) createBook(title, author string) *models.Book {
	env.T.Helper()
	book := models.Book{Title: title, Author: author}
	require.NoError(env.T, env.DB.Create(&book).Error)
	return &book
}
