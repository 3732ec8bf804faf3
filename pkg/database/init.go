package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// InitializeDatabases creates each named database if missing, connecting
// through the maintenance database "postgres".
func InitializeDatabases(ctx context.Context, admin Config, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("no database names provided")
	}

	admin.DBName = "postgres"
	conn, err := Open(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	for _, name := range names {
		if err := createDatabaseIfNotExists(ctx, conn, name); err != nil {
			return fmt.Errorf("failed to create database %q: %w", name, err)
		}
	}
	return nil
}

func createDatabaseIfNotExists(ctx context.Context, conn *sql.DB, name string) error {
	var exists bool
	err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE does not accept bind parameters.
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}
