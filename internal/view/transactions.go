// Package view holds the state behind the transaction screens: the fetched
// list plus the user's filter, month and mode selections.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"saldo/internal/aggregate"
	"saldo/internal/calendar"
	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/filter"
	"saldo/internal/stats"
	"saldo/internal/store"
)

type Transactions struct {
	remote store.TransactionStore
	bus    *events.Bus
	reg    *core.Registry
	unsubs []func()

	mu              sync.RWMutex
	all             []core.Transaction
	filter          filter.Filter
	month           core.Month
	mode            aggregate.ViewMode
	requireCategory bool
}

// Option configures a Transactions view.
type Option func(*Transactions)

// WithRegistry sets the category registry used for statistics labels.
func WithRegistry(reg *core.Registry) Option {
	return func(v *Transactions) { v.reg = reg }
}

// WithRequiredCategory makes Create reject drafts without a category.
func WithRequiredCategory() Option {
	return func(v *Transactions) { v.requireCategory = true }
}

// WithMonth sets the initially selected month.
func WithMonth(m core.Month) Option {
	return func(v *Transactions) { v.month = m }
}

// NewTransactions returns a view on the current month in daily mode. With a
// bus the view re-fetches on TransactionsChanged and drops an account filter
// whose account was deleted.
func NewTransactions(remote store.TransactionStore, bus *events.Bus, opts ...Option) *Transactions {
	v := &Transactions{
		remote: remote,
		bus:    bus,
		reg:    core.DefaultRegistry,
		month:  core.MonthOf(time.Now()),
		mode:   aggregate.ViewDaily,
	}
	for _, o := range opts {
		o(v)
	}
	if bus != nil {
		v.unsubs = append(v.unsubs,
			bus.Subscribe(events.TransactionsChanged, func(ctx context.Context, _ events.Event) {
				_ = v.Refresh(ctx)
			}),
			bus.Subscribe(events.AccountsChanged, v.onAccountsChanged),
		)
	}
	return v
}

// Close detaches the view from the bus.
func (v *Transactions) Close() {
	for _, u := range v.unsubs {
		u()
	}
	v.unsubs = nil
}

func (v *Transactions) onAccountsChanged(ctx context.Context, ev events.Event) {
	if ev.Action != events.ActionDeleted {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.filter.Mode() == filter.ByAccount && v.filter.AccountID() == ev.ID {
		v.filter.Clear()
		slog.InfoContext(ctx, "Cleared filter on deleted account", "account_id", ev.ID)
	}
}

// Refresh replaces the list with the store's. A failed read keeps the
// previous list.
func (v *Transactions) Refresh(ctx context.Context) error {
	txs, err := v.remote.ListTransactions(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to refresh transactions, keeping previous state", "error", err)
		return fmt.Errorf("list transactions: %w", err)
	}
	v.mu.Lock()
	v.all = txs
	v.mu.Unlock()
	return nil
}

func (v *Transactions) Month() core.Month {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.month
}

func (v *Transactions) SetMonth(m core.Month) {
	v.mu.Lock()
	v.month = m
	v.mu.Unlock()
}

func (v *Transactions) Mode() aggregate.ViewMode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

func (v *Transactions) SetMode(m aggregate.ViewMode) {
	v.mu.Lock()
	v.mode = m
	v.mu.Unlock()
}

func (v *Transactions) Filter() filter.Filter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

func (v *Transactions) SetFilter(f filter.Filter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

// All returns the unfiltered list in store order.
func (v *Transactions) All() []core.Transaction {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]core.Transaction(nil), v.all...)
}

// snapshot returns the filtered list together with the selections it was
// taken under.
func (v *Transactions) snapshot() ([]core.Transaction, core.Month, aggregate.ViewMode) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter.Apply(v.all), v.month, v.mode
}

// Visible returns the filtered list.
func (v *Transactions) Visible() []core.Transaction {
	txs, _, _ := v.snapshot()
	return txs
}

// Days buckets the selected month by day.
func (v *Transactions) Days() []aggregate.DayBucket {
	txs, m, _ := v.snapshot()
	return aggregate.GroupByDay(aggregate.InMonth(txs, m))
}

// Months buckets the selected year by month.
func (v *Transactions) Months() []aggregate.MonthBucket {
	txs, m, _ := v.snapshot()
	return aggregate.MonthsOfYear(txs, m.Year)
}

// Cumulative lists everything up to the end of the selected month.
func (v *Transactions) Cumulative() []core.Transaction {
	txs, m, _ := v.snapshot()
	return aggregate.UpToEndOfMonth(txs, m)
}

// Summary totals the visible transactions for the current mode.
func (v *Transactions) Summary() (aggregate.Summary, error) {
	txs, m, mode := v.snapshot()
	return aggregate.Summarize(mode, txs, m)
}

// Stats computes category shares for the selected month or all time.
func (v *Transactions) Stats(window stats.WindowKind, kind core.Kind) (stats.Result, error) {
	txs, m, _ := v.snapshot()
	return stats.Compute(txs, stats.Window{Kind: window, Month: m}, kind, v.reg)
}

// Calendar projects the selected month.
func (v *Transactions) Calendar() (calendar.Month, error) {
	txs, m, _ := v.snapshot()
	return calendar.Project(m.Year, int(m.Month)-1, txs)
}

// Create validates the draft, stores it and announces the change.
func (v *Transactions) Create(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	v.mu.RLock()
	required := v.requireCategory
	v.mu.RUnlock()

	t, err := draft.Build(required)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := v.remote.CreateTransaction(ctx, t)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create transaction", "error", err)
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"amount", created.Amount.String(),
		"category", created.Category)

	v.announce(ctx, events.ActionCreated, created.ID, created.AccountID)
	return created, nil
}

// Delete hides the transaction at once, then deletes it remotely. On failure
// the transaction is put back at its position and the error returned.
func (v *Transactions) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	idx := -1
	for i, t := range v.all {
		if t.ID == id {
			idx = i
			break
		}
	}
	var removed core.Transaction
	if idx >= 0 {
		removed = v.all[idx]
		v.all = append(v.all[:idx:idx], v.all[idx+1:]...)
	}
	v.mu.Unlock()

	if err := v.remote.DeleteTransaction(ctx, id); err != nil {
		if idx >= 0 {
			v.mu.Lock()
			if idx > len(v.all) {
				idx = len(v.all)
			}
			v.all = append(v.all, core.Transaction{})
			copy(v.all[idx+1:], v.all[idx:])
			v.all[idx] = removed
			v.mu.Unlock()
		}
		slog.ErrorContext(ctx, "Failed to delete transaction", "id", id, "error", err)
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)

	v.announce(ctx, events.ActionDeleted, id, removed.AccountID)
	return nil
}

// announce publishes TransactionsChanged and, because balances follow
// transactions, an AccountsChanged update for the touched account. Without a
// bus the view refreshes itself.
func (v *Transactions) announce(ctx context.Context, action events.Action, id, accountID string) {
	if v.bus == nil {
		_ = v.Refresh(ctx)
		return
	}
	v.bus.Publish(ctx, events.Event{Topic: events.TransactionsChanged, Action: action, ID: id})
	v.bus.Publish(ctx, events.Event{Topic: events.AccountsChanged, Action: events.ActionUpdated, ID: accountID})
}
