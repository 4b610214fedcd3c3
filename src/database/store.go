package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs the ledger statements against a Querier. Inside WithTx it is
// bound to the transaction.
type Queries struct {
	q Querier
}

// Store is the entry point services use. Reads outside a transaction go
// through the embedded Queries; writes go through WithTx.
type Store struct {
	*Queries
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{Queries: &Queries{q: db}, db: db}
}

// WithTx runs fn inside one transaction. fn's error rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const timestampLayout = "2006-01-02 15:04:05.000000000"

// Fixed width keeps lexical order equal to chronological order.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, s, time.UTC)
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func parseNullableDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}

func parseNullableTimestamp(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func parseNullableDecimal(ns sql.NullString) (decimal.NullDecimal, error) {
	if !ns.Valid || ns.String == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scopeClause restricts a query on alias to one account, or to active
// accounts when the scope is unbounded.
func scopeClause(alias string, scope models.Scope) (string, []any) {
	if scope.AccountID != nil {
		return alias + ".account_id = ?", []any{*scope.AccountID}
	}
	return alias + ".account_id IN (SELECT id FROM accounts WHERE is_active = 1)", nil
}
