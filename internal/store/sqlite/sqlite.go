// Package sqlite is the embedded SQL data store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"saldo/internal/core"
	"saldo/internal/store"
)

// createdAtLayout is fixed width so the column sorts lexicographically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps balance updates serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
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
			t         core.Transaction
			source    string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount.Cents, &t.Currency, &t.Category,
			&t.Description, &source, &t.Timestamp, &t.RawOrigin, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Source = core.Source(source)
		t.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTransaction inserts t and adjusts the referenced account's balance
// in the same database transaction.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = r.now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if t.AccountID != "" {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, t.Amount.Cents, t.AccountID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("update balance: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Transaction{}, fmt.Errorf("account %s: %w", t.AccountID, store.ErrUnknownAccount)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, amount_cents, currency, category, description, source, timestamp, raw_origin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Amount.Cents, t.Currency, t.Category, t.Description,
		string(t.Source), t.Timestamp, t.RawOrigin, t.CreatedAt.Format(createdAtLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"account_id", t.AccountID,
		"amount_cents", t.Amount.Cents,
		"timestamp", t.Timestamp)
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var (
		accountID string
		amount    int64
	)
	err = tx.QueryRowContext(ctx, `SELECT account_id, amount_cents FROM transactions WHERE id = ?`, id).
		Scan(&accountID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if accountID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = balance_cents - ? WHERE id = ?`, amount, accountID); err != nil {
			return fmt.Errorf("revert balance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, currency, balance_cents, last4
		FROM accounts
		ORDER BY created_at, rowid`)
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

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, currency, balance_cents, last4, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), a.Currency, a.Balance.Cents, a.Last4, r.now().UTC().Format(createdAtLayout))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	slog.InfoContext(ctx, "Account saved to SQLite", "id", a.ID, "name", a.Name, "type", a.Type)
	return a, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	slog.InfoContext(ctx, "Account deleted from SQLite", "id", id)
	return nil
}

func (r *Repository) AccountsSummary(ctx context.Context) (core.AccountSummary, error) {
	var assets, liabilities int64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN balance_cents >= 0 THEN balance_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN balance_cents < 0 THEN -balance_cents ELSE 0 END), 0)
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
