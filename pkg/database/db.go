package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB   *gorm.DB
	once sync.Once
)

// Options selects the database backend. Postgres is used unless Driver is "sqlite".
type Options struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
	Debug       bool
}

// Open creates a new connection. Duplicate-key violations are translated into
// gorm.ErrDuplicatedKey for both backends.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch opts.Driver {
	case "sqlite":
		path := opts.SQLitePath
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(path + sqliteParams(path))
	default:
		dsn := opts.DatabaseURL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				valueOrDefault("DB_HOST", "localhost"),
				valueOrDefault("DB_USER", "postgres"),
				os.Getenv("DB_PASS"),
				valueOrDefault("DB_NAME", "jobportal"),
				valueOrDefault("DB_PORT", "5432"),
			)
		}
		dialector = postgres.Open(dsn)
	}

	cfg := &gorm.Config{TranslateError: true}
	if !opts.Debug {
		cfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Connect opens the process-wide connection once and exits on failure.
func Connect(opts Options) *gorm.DB {
	once.Do(func() {
		db, err := Open(opts)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		DB = db
	})

	return DB
}

// OpenInMemory returns an isolated sqlite database, used by tests. Every pooled
// connection would see its own empty memory database, so the pool is capped at one.
func OpenInMemory() (*gorm.DB, error) {
	db, err := Open(Options{Driver: "sqlite", SQLitePath: "file::memory:"})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// sqlite ignores foreign keys unless asked.
func sqliteParams(path string) string {
	if strings.Contains(path, "?") {
		return "&_foreign_keys=on"
	}
	return "?_foreign_keys=on"
}

func valueOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}
