package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"savdesk/config"
)

// InitDB opens the gorm connection for the configured driver.
func InitDB(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Environment == "development" {
		logLevel = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DBDriver {
	case "postgres":
		dsn := PostgresDSN(cfg)
		log.Info("Connecting to PostgreSQL",
			zap.String("host", cfg.DBHost),
			zap.String("port", cfg.DBPort),
			zap.String("db", cfg.DBName),
		)
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)

	case "sqlite", "sqlite3":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create sqlite folder: %w", err)
		}
		log.Info("Opening SQLite database", zap.String("path", cfg.DBPath))
		db, err = gorm.Open(sqlite.Open(cfg.DBPath+"?_foreign_keys=1"), gormConfig)

	default:
		return nil, fmt.Errorf("unsupported DB driver: %s", cfg.DBDriver)
	}
	if err != nil {
		log.Error("Failed to connect to DB", zap.Error(err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("Database connection established", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// PostgresDSN builds the key/value DSN understood by both pgx and lib/pq.
func PostgresDSN(cfg config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)
}
