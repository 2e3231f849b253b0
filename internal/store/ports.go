// Package store defines the request/response interfaces of the remote data
// store. Views depend only on these ports.
package store

import (
	"context"
	"errors"
	"fmt"

	"saldo/internal/core"
)

// Ports for the data store.
type (
	TransactionStore interface {
		// ListTransactions returns every transaction, newest first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, id string) error
	}

	// SummaryReader returns the store's authoritative balance summary.
	SummaryReader interface {
		AccountsSummary(ctx context.Context) (core.AccountSummary, error)
	}

	// Store is the full data store surface.
	Store interface {
		TransactionStore
		AccountStore
		SummaryReader
	}
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnknownAccount is returned when a new transaction references an
	// account that does not exist.
	ErrUnknownAccount = fmt.Errorf("unknown account: %w", ErrNotFound)
)
