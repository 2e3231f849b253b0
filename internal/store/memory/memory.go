// Package memory is an in-process data store used for development and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
	"saldo/internal/store"
)

type Store struct {
	mu       sync.Mutex
	txs      []core.Transaction
	accounts []core.Account
	now      func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewFromFiles registers extra category labels from seed_categories.txt in
// base into reg (one label per line, # comments allowed) and returns an empty
// store. Missing files are ignored.
func NewFromFiles(base string, reg *core.Registry) *Store {
	if reg == nil {
		reg = core.DefaultRegistry
	}
	for _, label := range readLines(filepath.Join(base, "seed_categories.txt")) {
		reg.Register(core.Category{ID: core.CategoryKey(label), Label: label})
	}
	return New()
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := append([]core.Transaction(nil), s.txs...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CreateTransaction assigns an id and creation time and moves the balance of
// the referenced account.
func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.AccountID != "" {
		i := s.accountIndex(t.AccountID)
		if i < 0 {
			return core.Transaction{}, fmt.Errorf("account %s: %w", t.AccountID, store.ErrUnknownAccount)
		}
		s.accounts[i].Balance = s.accounts[i].Balance.Add(t.Amount)
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	s.txs = append(s.txs, t)
	return t, nil
}

// DeleteTransaction removes a transaction and reverts its balance effect if
// the account still exists.
func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.txs {
		if t.ID != id {
			continue
		}
		if j := s.accountIndex(t.AccountID); j >= 0 {
			s.accounts[j].Balance = s.accounts[j].Balance.Sub(t.Amount)
		}
		s.txs = append(s.txs[:i], s.txs[i+1:]...)
		return nil
	}
	return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	s.accounts = append(s.accounts, a)
	return a, nil
}

// DeleteAccount removes the account. Its transactions are kept and keep
// referencing the old id.
func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	return nil
}

func (s *Store) AccountsSummary(_ context.Context) (core.AccountSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.accounts), nil
}

func (s *Store) accountIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, a := range s.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	seen := map[string]struct{}{}
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
