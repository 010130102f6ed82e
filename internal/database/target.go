package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"firelater-migrate/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// TargetDB is the relational datastore imported entities are written into.
// Imports run inside a single sql.Tx spanning the whole batch.
type TargetDB struct {
	DB     *sql.DB
	DBType string // "postgresql" or "mysql"
}

// OpenTarget opens and pings the target database. Callers own the
// returned connection and must close it.
func OpenTarget(cfg *config.Config) (*TargetDB, error) {
	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	driver := cfg.TargetDBType
	if driver == "postgresql" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &TargetDB{DB: db, DBType: cfg.TargetDBType}, nil
}

// NewTargetDB opens the target database connection with lifecycle management
func NewTargetDB(lc fx.Lifecycle, cfg *config.Config) (*TargetDB, error) {
	target, err := OpenTarget(cfg)
	if err != nil {
		return nil, err
	}

	log.Println("Connected to target database!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing target database connection...")
			return target.DB.Close()
		},
	})

	return target, nil
}

// buildConnectionString creates a connection string from config
func buildConnectionString(cfg *config.Config) (string, error) {
	if cfg.TargetDBHost == "" || cfg.TargetDBName == "" || cfg.TargetDBUser == "" {
		return "", fmt.Errorf("missing required target database parameters")
	}

	port := cfg.TargetDBPort
	if port == 0 {
		if cfg.TargetDBType == "postgresql" {
			port = 5432
		} else {
			port = 3306
		}
	}

	if cfg.TargetDBType == "postgresql" {
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.TargetDBHost, port, cfg.TargetDBUser, cfg.TargetDBPassword, cfg.TargetDBName,
		), nil
	}

	// MySQL
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.TargetDBUser, cfg.TargetDBPassword, cfg.TargetDBHost, port, cfg.TargetDBName,
	), nil
}
