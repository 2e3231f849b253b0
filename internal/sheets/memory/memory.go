// Package memory is an in-process TransactionMirror for local runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"saldo/internal/core"
	"saldo/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows [][]any
	// FailNext makes the next call return this error, then clears it.
	FailNext error
}

var _ sheets.TransactionMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (m *Mirror) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return "", err
	}
	if t.ID == "" {
		return "", errors.New("transaction id is required")
	}
	if i := m.index(t.ID); i >= 0 {
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.rows = append(m.rows, sheets.Row(t))
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// DeleteTransaction clears the row in place, like the Sheets adapter does.
func (m *Mirror) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", sheets.ErrRowNotFound, id)
	}
	m.rows[i] = nil
	return nil
}

// IDs returns the ids of the rows that are not cleared, in sheet order.
func (m *Mirror) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.rows {
		if len(r) > 0 {
			out = append(out, r[0].(string))
		}
	}
	return out
}

func (m *Mirror) index(id string) int {
	for i, r := range m.rows {
		if len(r) > 0 && r[0] == id {
			return i
		}
	}
	return -1
}

func (m *Mirror) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}
