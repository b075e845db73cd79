package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	HTTPPort       string
	Environment    string
	MigrationsPath string

	// Базовый URL внешнего API школы: справочник преподавателей/курсов и права
	CoreAPIBaseURL string

	// Горизонт автопродления занятий фоновой задачей, в неделях
	GenerationHorizonWeeks int
	// Cron-расписание фоновой задачи автопродления
	GenerationCronSpec string
	// Пропускать уже существующие занятия при повторной генерации
	SkipExistingInstances bool
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:              os.Getenv("DB_DSN"),
		HTTPPort:           os.Getenv("HTTP_PORT"),
		Environment:        os.Getenv("ENV"),
		MigrationsPath:     os.Getenv("MIGRATIONS_PATH"),
		CoreAPIBaseURL:     os.Getenv("CORE_API_BASE_URL"),
		GenerationCronSpec: os.Getenv("GENERATION_CRON"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}
	if cfg.GenerationCronSpec == "" {
		cfg.GenerationCronSpec = "0 3 * * *"
	}

	cfg.GenerationHorizonWeeks = intEnv("GENERATION_HORIZON_WEEKS", 4)
	cfg.SkipExistingInstances = boolEnv("SKIP_EXISTING_INSTANCES", true)

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.CoreAPIBaseURL == "" {
		return nil, fmt.Errorf("CORE_API_BASE_URL is required but not set")
	}

	return cfg, nil
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func boolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %t", key, raw, fallback)
		return fallback
	}
	return value
}
