package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vinald/bookapi/internal/blacklist"
	"github.com/vinald/bookapi/internal/config"
	"github.com/vinald/bookapi/internal/es"
	"github.com/vinald/bookapi/internal/handlers"
	"github.com/vinald/bookapi/internal/logging"
	"github.com/vinald/bookapi/internal/mail"
	authmw "github.com/vinald/bookapi/internal/middleware/auth"
	loggingmw "github.com/vinald/bookapi/internal/middleware/logging"
	"github.com/vinald/bookapi/internal/mykafka"
	"github.com/vinald/bookapi/internal/service"
	"github.com/vinald/bookapi/internal/tokens"
	httpserver "github.com/vinald/bookapi/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.JWT_SECRET, "JWT_SECRET")

	logger := logging.New(cfg.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	codec, err := tokens.NewCodec([]byte(cfg.JWT_SECRET), cfg.JWT_ALGORITHM)
	if err != nil {
		logger.Error("token codec init failed", "error", err)
		os.Exit(1)
	}

	rdb, err := blacklist.NewClient(cfg.REDIS_HOST, cfg.REDIS_PORT, cfg.REDIS_PASSWORD)
	if err != nil {
		// Keep the client: blacklist reads fail open, and Redis may come
		// back before the first logout needs a write.
		logger.Warn("redis ping failed", "error", err)
	}
	cache := blacklist.New(rdb)

	var brokers []string
	if cfg.KAFKA_ADDRESS != "" {
		brokers = []string{cfg.KAFKA_ADDRESS}
	}
	prod := mykafka.NewProducer(brokers)
	if !prod.Enabled() {
		logger.Warn("kafka address not set, event publishing disabled")
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	mailer := mail.New(cfg)
	if !mailer.Enabled() {
		logger.Warn("smtp not configured, outgoing email disabled")
	}

	accessTTL := time.Duration(cfg.ACCESS_TOKEN_TTL_MIN) * time.Minute
	refreshTTL := time.Duration(cfg.REFRESH_TOKEN_TTL_DAY) * 24 * time.Hour
	verifyTTL := time.Duration(cfg.VERIFICATION_TOKEN_TTL_HOURS) * time.Hour

	authSvc := &service.AuthService{
		DB:         db,
		Codec:      codec,
		Blacklist:  cache,
		Mailer:     mailer,
		Producer:   prod,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		VerifyTTL:  verifyTTL,
	}
	userSvc := &service.UserService{DB: db, Codec: codec, Mailer: mailer, Producer: prod, VerifyTTL: verifyTTL}
	bookSvc := &service.BookService{DB: db, ES: esClient, Index: cfg.ES_INDEX, Producer: prod}
	reviewSvc := &service.ReviewService{DB: db, Producer: prod}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:            db,
		Redis:         rdb,
		Auth:          &authmw.Middleware{DB: db, Codec: codec, Blacklist: cache},
		AuthHandler:   &handlers.AuthHandler{Auth: authSvc},
		UserHandler:   &handlers.UserHandler{Users: userSvc, Reviews: reviewSvc},
		AdminHandler:  &handlers.AdminHandler{Users: userSvc},
		BookHandler:   &handlers.BookHandler{Books: bookSvc},
		ReviewHandler: &handlers.ReviewHandler{Reviews: reviewSvc},
		SearchHandler: &handlers.SearchHandler{ES: esClient, Index: cfg.ES_INDEX},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.SERVER_PORT),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	} else {
		logger.Error("db handle error", "error", err)
	}

	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
