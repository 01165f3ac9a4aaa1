package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"savdesk/config"
)

// InitLegacyDB opens the raw database/sql handle used for reporting
// queries that are easier to express in plain SQL than through gorm.
func InitLegacyDB(cfg config.Config, log *zap.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.DBDriver {
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr != "" {
			log.Info("Using DATABASE_URL for the reporting connection")
		} else {
			connStr = PostgresDSN(cfg)
		}

		db, err = sql.Open("postgres", connStr)
		if err != nil {
			log.Error("Failed to open PostgreSQL reporting connection", zap.Error(err))
			return nil, err
		}

	case "sqlite", "sqlite3":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), os.ModePerm); err != nil {
			log.Error("Failed to create directory for SQLite database", zap.Error(err))
			return nil, err
		}

		db, err = sql.Open("sqlite3", cfg.DBPath)
		if err != nil {
			log.Error("Failed to open SQLite reporting connection", zap.Error(err))
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	if err := db.Ping(); err != nil {
		log.Error("Failed to ping reporting database", zap.Error(err))
		db.Close()
		return nil, err
	}

	log.Info("Reporting database connection established", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// CloseLegacyDB closes the reporting connection
func CloseLegacyDB(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
