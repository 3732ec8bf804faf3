// Package repo is the PostgreSQL storage layer. Queries are built with goqu
// and run over database/sql with the lib/pq driver.
package repo

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded NNN_name.sql files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// queryer is satisfied by both *goqu.Database and *goqu.TxDatabase.
type queryer interface {
	From(from ...interface{}) *goqu.SelectDataset
	Insert(table interface{}) *goqu.InsertDataset
	Update(table interface{}) *goqu.UpdateDataset
	Delete(table interface{}) *goqu.DeleteDataset
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	ScanValContext(ctx context.Context, i interface{}, query string, args ...interface{}) (bool, error)
}

type Client struct {
	db   *sql.DB
	gq   *goqu.Database
	q    queryer
	inTx bool
}

func NewClient(db *sql.DB) *Client {
	gq := goqu.New("postgres", db)
	return &Client{db: db, gq: gq, q: gq}
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Client) Close() error { return c.db.Close() }

// WithTx runs fn inside a transaction. Nested calls reuse the outer one.
func (c *Client) WithTx(ctx context.Context, fn func(tx *Client) error) error {
	if c.inTx {
		return fn(c)
	}

	tx, err := c.gq.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&Client{db: c.db, gq: c.gq, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// exec runs a built statement and reports the affected row count.
func exec(ctx context.Context, ex interface {
	ExecContext(ctx context.Context) (sql.Result, error)
}) (int64, error) {
	res, err := ex.ExecContext(ctx)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

// execOne is exec that turns zero affected rows into ErrNotFound.
func execOne(ctx context.Context, ex interface {
	ExecContext(ctx context.Context) (sql.Result, error)
}) error {
	n, err := exec(ctx, ex)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// getOne scans a single row into dst, returning ErrNotFound when missing.
func getOne(ctx context.Context, ds *goqu.SelectDataset, dst interface{}) error {
	found, err := ds.ScanStructContext(ctx, dst)
	if err != nil {
		return translate(err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
