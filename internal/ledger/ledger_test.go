package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/store/memory"
)

// countingRemote wraps the memory store to count summary fetches and inject
// failures.
type countingRemote struct {
	*memory.Store

	mu           sync.Mutex
	summaryCalls int
	deleteErr    error
	onDelete     func(id string)
	failLists    bool
}

func (r *countingRemote) AccountsSummary(ctx context.Context) (core.AccountSummary, error) {
	r.mu.Lock()
	r.summaryCalls++
	r.mu.Unlock()
	return r.Store.AccountsSummary(ctx)
}

func (r *countingRemote) ListAccounts(ctx context.Context) ([]core.Account, error) {
	if r.failLists {
		return nil, errors.New("offline")
	}
	return r.Store.ListAccounts(ctx)
}

func (r *countingRemote) DeleteAccount(ctx context.Context, id string) error {
	if r.onDelete != nil {
		r.onDelete(id)
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Store.DeleteAccount(ctx, id)
}

func (r *countingRemote) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaryCalls
}

func seeded(t *testing.T) (*countingRemote, []core.Account) {
	t.Helper()
	remote := &countingRemote{Store: memory.New()}
	var out []core.Account
	for _, d := range []core.AccountDraft{
		{Name: "Cash", Type: core.AccountCash, Balance: "50"},
		{Name: "Bank", Type: core.AccountBank, Balance: "1000"},
		{Name: "Card", Type: core.AccountCard, Balance: "-200", Last4: "1234"},
	} {
		a, err := d.Build()
		if err != nil {
			t.Fatalf("build %s: %v", d.Name, err)
		}
		a, err = remote.Store.CreateAccount(context.Background(), a)
		if err != nil {
			t.Fatalf("create %s: %v", d.Name, err)
		}
		out = append(out, a)
	}
	return remote, out
}

func TestRefreshLoadsAccountsAndSummary(t *testing.T) {
	remote, _ := seeded(t)
	v := New(remote, nil)
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(v.Accounts()) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(v.Accounts()))
	}
	want := core.AccountSummary{Assets: core.Cents(105000), Liabilities: core.Cents(20000), Net: core.Cents(85000)}
	if v.Summary() != want {
		t.Fatalf("summary = %+v, want %+v", v.Summary(), want)
	}
}

func TestRefreshFailureKeepsState(t *testing.T) {
	remote, _ := seeded(t)
	v := New(remote, nil)
	_ = v.Refresh(context.Background())

	remote.failLists = true
	if err := v.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(v.Accounts()) != 3 || v.Summary().Net.Cents != 85000 {
		t.Fatalf("state changed after failed refresh")
	}
}

func TestDeleteRemovesImmediatelyAndRefetchesSummary(t *testing.T) {
	remote, accounts := seeded(t)
	bus := events.NewBus()
	v := New(remote, bus)
	_ = v.Refresh(context.Background())

	target := accounts[2]
	remote.onDelete = func(id string) {
		for _, a := range v.Accounts() {
			if a.ID == id {
				t.Errorf("account %s still visible while the remote delete is in flight", id)
			}
		}
	}
	var published []events.Event
	bus.Subscribe(events.AccountsChanged, func(_ context.Context, ev events.Event) {
		published = append(published, ev)
	})

	before := remote.calls()
	if err := v.Delete(context.Background(), target.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if remote.calls() != before+1 {
		t.Fatalf("expected a summary re-fetch, calls %d -> %d", before, remote.calls())
	}
	if got := v.Summary(); got.Liabilities.Cents != 0 || got.Net.Cents != 105000 {
		t.Fatalf("summary not refreshed: %+v", got)
	}
	if len(published) != 1 || published[0].ID != target.ID || published[0].Action != events.ActionDeleted {
		t.Fatalf("unexpected events: %+v", published)
	}
}

func TestDeleteFailureRollsBack(t *testing.T) {
	remote, accounts := seeded(t)
	bus := events.NewBus()
	v := New(remote, bus)
	_ = v.Refresh(context.Background())

	remote.deleteErr = errors.New("network down")
	published := 0
	bus.Subscribe(events.AccountsChanged, func(context.Context, events.Event) { published++ })

	if err := v.Delete(context.Background(), accounts[1].ID); err == nil {
		t.Fatalf("expected error")
	}
	got := v.Accounts()
	if len(got) != 3 {
		t.Fatalf("expected 3 accounts after rollback, got %d", len(got))
	}
	for i := range accounts {
		if got[i].ID != accounts[i].ID {
			t.Fatalf("rollback changed order: %v", got)
		}
	}
	if published != 0 {
		t.Fatalf("failed delete must not publish")
	}
}

func TestCreateValidatesBeforeRemote(t *testing.T) {
	remote, _ := seeded(t)
	v := New(remote, nil)

	if _, err := v.Create(context.Background(), core.AccountDraft{Type: core.AccountBank}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	accounts, _ := remote.Store.ListAccounts(context.Background())
	if len(accounts) != 3 {
		t.Fatalf("invalid draft reached the store")
	}

	a, err := v.Create(context.Background(), core.AccountDraft{Name: "Savings", Type: core.AccountBank, Balance: "10"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(v.Accounts()) != 4 || v.Accounts()[3].ID != a.ID {
		t.Fatalf("view not refreshed after create")
	}
}

func TestTransactionsChangedTriggersRefresh(t *testing.T) {
	remote, accounts := seeded(t)
	bus := events.NewBus()
	v := New(remote, bus)
	defer v.Close()
	_ = v.Refresh(context.Background())

	_, err := remote.Store.CreateTransaction(context.Background(), core.Transaction{
		AccountID: accounts[0].ID, Amount: core.Cents(-5000), Source: core.SourceManual, Timestamp: "2025-11-01",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	bus.Publish(context.Background(), events.Event{Topic: events.TransactionsChanged, Action: events.ActionCreated})

	if v.Accounts()[0].Balance.Cents != 0 {
		t.Fatalf("balance not refreshed: %+v", v.Accounts()[0])
	}
}
