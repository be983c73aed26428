package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/models"
)

type Config struct {
	SERVER_PORT int
	LOG_LEVEL   string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	JWT_SECRET            string
	JWT_ALGORITHM         string
	ACCESS_TOKEN_TTL_MIN  int
	REFRESH_TOKEN_TTL_DAY int

	REDIS_HOST     string
	REDIS_PORT     string
	REDIS_PASSWORD string

	VERIFICATION_TOKEN_TTL_HOURS int
	FRONTEND_URL                 string

	SMTP_HOST     string
	SMTP_PORT     int
	SMTP_USERNAME string
	SMTP_PASSWORD string
	MAIL_FROM     string
	MAIL_FROM_NAME string

	KAFKA_ADDRESS string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
	ES_INDEX    string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		SERVER_PORT: EnvIntDefault("SERVER_PORT", 8080),
		LOG_LEVEL:   EnvDefault("LOG_LEVEL", "info"),

		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     EnvDefault("DB_PORT", "5432"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		JWT_SECRET:            os.Getenv("JWT_SECRET"),
		JWT_ALGORITHM:         EnvDefault("JWT_ALGORITHM", "HS256"),
		ACCESS_TOKEN_TTL_MIN:  EnvIntDefault("ACCESS_TOKEN_TTL_MIN", 30),
		REFRESH_TOKEN_TTL_DAY: EnvIntDefault("REFRESH_TOKEN_TTL_DAY", 7),

		REDIS_HOST:     EnvDefault("REDIS_HOST", "localhost"),
		REDIS_PORT:     EnvDefault("REDIS_PORT", "6379"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),

		VERIFICATION_TOKEN_TTL_HOURS: EnvIntDefault("VERIFICATION_TOKEN_TTL_HOURS", 24),
		FRONTEND_URL:                 EnvDefault("FRONTEND_URL", "http://localhost:3000"),

		SMTP_HOST:      os.Getenv("SMTP_HOST"),
		SMTP_PORT:      EnvIntDefault("SMTP_PORT", 587),
		SMTP_USERNAME:  os.Getenv("SMTP_USERNAME"),
		SMTP_PASSWORD:  os.Getenv("SMTP_PASSWORD"),
		MAIL_FROM:      os.Getenv("MAIL_FROM"),
		MAIL_FROM_NAME: EnvDefault("MAIL_FROM_NAME", "BookAPI"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),
		ES_INDEX:    EnvDefault("ES_INDEX", "books"),
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Review{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
