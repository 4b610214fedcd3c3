package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/tradebook/backend/src/models"
)

const accountColumns = `id, name, provider, is_active, created_at, updated_at`

func scanAccount(s rowScanner) (*models.Account, error) {
	var (
		a                models.Account
		provider         string
		created, updated string
	)
	if err := s.Scan(&a.ID, &a.Name, &provider, &a.IsActive, &created, &updated); err != nil {
		return nil, err
	}
	a.Provider = models.Provider(provider)
	var err error
	if a.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, fmt.Errorf("account %d created_at: %w", a.ID, err)
	}
	if a.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, fmt.Errorf("account %d updated_at: %w", a.ID, err)
	}
	return &a, nil
}

func (q *Queries) InsertAccount(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO accounts (name, provider, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		a.Name, string(a.Provider), a.IsActive, formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		return fmt.Errorf("insert account %q: %w", a.Name, err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert account %q: %w", a.Name, err)
	}
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	a, err := scanAccount(q.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (q *Queries) GetAccountByName(ctx context.Context, name string) (*models.Account, error) {
	a, err := scanAccount(q.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (q *Queries) ListAccounts(ctx context.Context, activeOnly bool) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (q *Queries) UpdateAccount(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx,
		`UPDATE accounts SET name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		a.Name, a.IsActive, formatTimestamp(now), a.ID)
	if err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	a.UpdatedAt = now
	return nil
}
