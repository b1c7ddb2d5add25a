// Package db picks the SQL backend for the analysis history mirror.
package db

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/call-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/call-analyzer/internal/infra/db/mysql"
	"github.com/bryanwahyu/call-analyzer/internal/infra/db/postgres"
	"github.com/bryanwahyu/call-analyzer/internal/infra/db/sqlite"
)

// Drivers accepted by OpenHistory.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// HistoryRepository is a migratable analysis.Repository.
type HistoryRepository interface {
	domain.Repository
	Migrate(ctx context.Context) error
}

// OpenHistory connects, migrates and returns the repository. The caller closes the *sql.DB.
func OpenHistory(ctx context.Context, driver, dsn string) (*sql.DB, HistoryRepository, error) {
	var (
		conn *sql.DB
		repo HistoryRepository
		err  error
	)
	switch driver {
	case DriverMySQL:
		if conn, err = mysql.Connect(ctx, dsn); err == nil {
			repo = mysql.NewAnalysisRepository(conn)
		}
	case DriverPostgres:
		if conn, err = postgres.Connect(ctx, dsn); err == nil {
			repo = postgres.NewAnalysisRepository(conn)
		}
	case DriverSQLite:
		if conn, err = sqlite.Connect(ctx, dsn); err == nil {
			repo = sqlite.NewAnalysisRepository(conn)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported history driver %q", driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if err := repo.Migrate(ctx); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", driver, err)
	}
	return conn, repo, nil
}
