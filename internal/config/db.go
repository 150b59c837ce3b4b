package config

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"rentalhub/internal/utils"

	"github.com/go-sql-driver/mysql"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(dataSource string) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	dataSource, err := FoundRowsDSN(dataSource)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dataSource)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	DB = db
	utils.LogEvent("", "db", "connect", "connected to MySQL")
	return DB, nil
}

// FoundRowsDSN enables clientFoundRows so UPDATE reports matched rows.
func FoundRowsDSN(dataSource string) (string, error) {
	cfg, err := mysql.ParseDSN(dataSource)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
