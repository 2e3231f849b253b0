// Package postgres is the PostgreSQL data store.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"saldo/internal/core"
	"saldo/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *pgxpool.Pool
}

// NewStore connects, pings and migrates the database behind connString.
func NewStore(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	if err := runMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{db: pool}, nil
}

func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, account_id, amount_cents, currency, category, description, source, timestamp, raw_origin, created_at
		FROM transactions
		ORDER BY timestamp DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t      core.Transaction
			source string
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount.Cents, &t.Currency, &t.Category,
			&t.Description, &source, &t.Timestamp, &t.RawOrigin, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Source = core.Source(source)
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if t.AccountID != "" {
		tag, err := tx.Exec(ctx,
			"UPDATE accounts SET balance_cents = balance_cents + $1 WHERE id = $2", t.Amount.Cents, t.AccountID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("update balance: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return core.Transaction{}, fmt.Errorf("account %s: %w", t.AccountID, store.ErrUnknownAccount)
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (id, account_id, amount_cents, currency, category, description, source, timestamp, raw_origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		t.ID, t.AccountID, t.Amount.Cents, t.Currency, t.Category, t.Description,
		string(t.Source), t.Timestamp, t.RawOrigin).Scan(&t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()

	slog.InfoContext(ctx, "Transaction saved to Postgres", "id", t.ID, "amount_cents", t.Amount.Cents)
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		accountID string
		amount    int64
	)
	err = tx.QueryRow(ctx,
		"DELETE FROM transactions WHERE id = $1 RETURNING account_id, amount_cents", id).Scan(&accountID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if accountID != "" {
		if _, err := tx.Exec(ctx,
			"UPDATE accounts SET balance_cents = balance_cents - $1 WHERE id = $2", amount, accountID); err != nil {
			return fmt.Errorf("revert balance: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, name, type, currency, balance_cents, last4 FROM accounts ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []core.Account{}
	for rows.Next() {
		var (
			a   core.Account
			typ string
		)
		if err := rows.Scan(&a.ID, &a.Name, &typ, &a.Currency, &a.Balance.Cents, &a.Last4); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = uuid.NewString()
	_, err := s.db.Exec(ctx,
		"INSERT INTO accounts (id, name, type, currency, balance_cents, last4) VALUES ($1, $2, $3, $4, $5, $6)",
		a.ID, a.Name, string(a.Type), a.Currency, a.Balance.Cents, a.Last4)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) AccountsSummary(ctx context.Context) (core.AccountSummary, error) {
	var assets, liabilities int64
	err := s.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(balance_cents) FILTER (WHERE balance_cents >= 0), 0)::BIGINT,
			COALESCE(SUM(-balance_cents) FILTER (WHERE balance_cents < 0), 0)::BIGINT
		FROM accounts`).Scan(&assets, &liabilities)
	if err != nil {
		return core.AccountSummary{}, fmt.Errorf("accounts summary: %w", err)
	}
	return core.AccountSummary{
		Assets:      core.Cents(assets),
		Liabilities: core.Cents(liabilities),
		Net:         core.Cents(assets - liabilities),
	}, nil
}
