// Package storetest holds behaviour checks shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"saldo/internal/core"
	"saldo/internal/store"
)

// Run exercises s, which must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("EmptyStore", func(t *testing.T) {
		txs, err := s.ListTransactions(ctx)
		if err != nil || len(txs) != 0 {
			t.Fatalf("expected empty list, got %v err=%v", txs, err)
		}
		sum, err := s.AccountsSummary(ctx)
		if err != nil || sum != (core.AccountSummary{}) {
			t.Fatalf("expected zero summary, got %+v err=%v", sum, err)
		}
	})

	var bank, card core.Account
	t.Run("CreateAccounts", func(t *testing.T) {
		var err error
		bank, err = s.CreateAccount(ctx, core.Account{Name: "Bank", Type: core.AccountBank, Currency: "EUR", Balance: core.Cents(10000)})
		if err != nil || bank.ID == "" {
			t.Fatalf("create bank: %+v err=%v", bank, err)
		}
		card, err = s.CreateAccount(ctx, core.Account{Name: "Card", Type: core.AccountCard, Currency: "EUR", Balance: core.Cents(-2500), Last4: "4242"})
		if err != nil || card.ID == "" {
			t.Fatalf("create card: %+v err=%v", card, err)
		}
		accounts, err := s.ListAccounts(ctx)
		if err != nil || len(accounts) != 2 {
			t.Fatalf("list accounts: %v err=%v", accounts, err)
		}
		if accounts[1].Last4 != "4242" || accounts[1].Balance.Cents != -2500 {
			t.Fatalf("unexpected card row: %+v", accounts[1])
		}
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		if _, err := s.CreateAccount(ctx, core.Account{Type: core.AccountBank}); !errors.Is(err, core.ErrEmptyName) {
			t.Fatalf("expected ErrEmptyName, got %v", err)
		}
		if _, err := s.CreateTransaction(ctx, core.Transaction{Amount: core.Cents(1), Source: core.SourceManual}); !errors.Is(err, core.ErrMissingTimestamp) {
			t.Fatalf("expected ErrMissingTimestamp, got %v", err)
		}
		_, err := s.CreateTransaction(ctx, core.Transaction{
			AccountID: "missing", Amount: core.Cents(1), Source: core.SourceManual, Timestamp: "2025-11-01T00:00:00Z",
		})
		if !errors.Is(err, store.ErrUnknownAccount) || !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrUnknownAccount, got %v", err)
		}
	})

	var salary, food core.Transaction
	t.Run("RunningBalances", func(t *testing.T) {
		var err error
		salary, err = s.CreateTransaction(ctx, core.Transaction{
			AccountID: bank.ID, Amount: core.Cents(500000), Currency: "EUR", Category: "Salary",
			Source: core.SourceManual, Timestamp: "2025-11-01T09:00:00Z",
		})
		if err != nil || salary.ID == "" || salary.CreatedAt.IsZero() {
			t.Fatalf("create salary: %+v err=%v", salary, err)
		}
		food, err = s.CreateTransaction(ctx, core.Transaction{
			AccountID: card.ID, Amount: core.Cents(-20000), Currency: "EUR", Category: "Food",
			Description: "groceries", Source: core.SourceManual, Timestamp: "2025-11-02T18:30:00Z",
		})
		if err != nil {
			t.Fatalf("create food: %v", err)
		}

		sum, err := s.AccountsSummary(ctx)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		want := core.AccountSummary{Assets: core.Cents(510000), Liabilities: core.Cents(22500), Net: core.Cents(487500)}
		if sum != want {
			t.Fatalf("summary = %+v, want %+v", sum, want)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		txs, err := s.ListTransactions(ctx)
		if err != nil || len(txs) != 2 {
			t.Fatalf("list: %v err=%v", txs, err)
		}
		if txs[0].ID != food.ID || txs[1].ID != salary.ID {
			t.Fatalf("unexpected order: %s, %s", txs[0].ID, txs[1].ID)
		}
		got := txs[0]
		if got.Amount.Cents != -20000 || got.Category != "Food" || got.Description != "groceries" || got.AccountID != card.ID {
			t.Fatalf("round trip mismatch: %+v", got)
		}
	})

	t.Run("DeleteRevertsBalance", func(t *testing.T) {
		if err := s.DeleteTransaction(ctx, food.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.DeleteTransaction(ctx, food.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		sum, _ := s.AccountsSummary(ctx)
		if sum.Liabilities.Cents != 2500 {
			t.Fatalf("liabilities = %d, want 2500", sum.Liabilities.Cents)
		}
	})

	t.Run("DeleteAccount", func(t *testing.T) {
		if err := s.DeleteAccount(ctx, card.ID); err != nil {
			t.Fatalf("delete account: %v", err)
		}
		if err := s.DeleteAccount(ctx, card.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		accounts, _ := s.ListAccounts(ctx)
		if len(accounts) != 1 || accounts[0].ID != bank.ID {
			t.Fatalf("unexpected accounts: %+v", accounts)
		}
		sum, _ := s.AccountsSummary(ctx)
		want := core.AccountSummary{Assets: core.Cents(510000), Net: core.Cents(510000)}
		if sum != want {
			t.Fatalf("summary = %+v, want %+v", sum, want)
		}
	})
}
