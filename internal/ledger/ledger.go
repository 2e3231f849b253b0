// Package ledger holds the account list and balance summary shown by the
// accounts screen.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/store"
)

// Remote is what the ledger needs from the data store.
type Remote interface {
	store.AccountStore
	store.SummaryReader
}

type View struct {
	remote Remote
	bus    *events.Bus

	mu       sync.RWMutex
	accounts []core.Account
	summary  core.AccountSummary
	unsub    func()
}

// New builds an empty view. When bus is non-nil the view re-fetches whenever
// transactions change, since balances follow them.
func New(remote Remote, bus *events.Bus) *View {
	v := &View{remote: remote, bus: bus}
	if bus != nil {
		v.unsub = bus.Subscribe(events.TransactionsChanged, func(ctx context.Context, _ events.Event) {
			_ = v.Refresh(ctx)
		})
	}
	return v
}

// Close detaches the view from the bus.
func (v *View) Close() {
	if v.unsub != nil {
		v.unsub()
	}
}

func (v *View) Accounts() []core.Account {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]core.Account(nil), v.accounts...)
}

// Summary returns the last summary reported by the store.
func (v *View) Summary() core.AccountSummary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.summary
}

// Refresh fetches the account list and the summary concurrently. On failure
// the previous state is kept and the error is logged and returned.
func (v *View) Refresh(ctx context.Context) error {
	var (
		accounts []core.Account
		summary  core.AccountSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = v.remote.ListAccounts(gctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = v.remote.AccountsSummary(gctx)
		if err != nil {
			return fmt.Errorf("accounts summary: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "Failed to refresh accounts, keeping previous state", "error", err)
		return err
	}

	v.mu.Lock()
	v.accounts = accounts
	v.summary = summary
	v.mu.Unlock()
	return nil
}

// Create validates the draft, creates the account remotely and re-fetches.
func (v *View) Create(ctx context.Context, draft core.AccountDraft) (core.Account, error) {
	a, err := draft.Build()
	if err != nil {
		return core.Account{}, err
	}
	created, err := v.remote.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created", "id", created.ID, "name", created.Name)

	_ = v.Refresh(ctx)
	v.publish(ctx, events.ActionCreated, created.ID)
	return created, nil
}

// Delete removes the account from the local list at once, then asks the
// store to delete it. A failed remote delete puts the account back where it
// was and returns the error.
func (v *View) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	idx := -1
	for i, a := range v.accounts {
		if a.ID == id {
			idx = i
			break
		}
	}
	var removed core.Account
	if idx >= 0 {
		removed = v.accounts[idx]
		v.accounts = append(v.accounts[:idx:idx], v.accounts[idx+1:]...)
	}
	v.mu.Unlock()

	if err := v.remote.DeleteAccount(ctx, id); err != nil {
		if idx >= 0 {
			v.restore(idx, removed)
		}
		slog.ErrorContext(ctx, "Failed to delete account", "id", id, "error", err)
		return fmt.Errorf("delete account: %w", err)
	}
	slog.InfoContext(ctx, "Account deleted", "id", id)

	_ = v.Refresh(ctx)
	v.publish(ctx, events.ActionDeleted, id)
	return nil
}

func (v *View) restore(idx int, a core.Account) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if idx > len(v.accounts) {
		idx = len(v.accounts)
	}
	v.accounts = append(v.accounts, core.Account{})
	copy(v.accounts[idx+1:], v.accounts[idx:])
	v.accounts[idx] = a
}

func (v *View) publish(ctx context.Context, action events.Action, id string) {
	if v.bus == nil {
		return
	}
	v.bus.Publish(ctx, events.Event{Topic: events.AccountsChanged, Action: action, ID: id})
}
