package sheets

import (
	"context"
	"errors"

	"saldo/internal/core"
)

// ErrRowNotFound is returned when no mirrored row carries the requested id.
var ErrRowNotFound = errors.New("mirrored row not found")

// TransactionMirror keeps a spreadsheet copy of the ledger's transactions.
type TransactionMirror interface {
	// AppendTransaction writes one row and returns its A1 reference.
	AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Header is the column layout of the mirror sheet.
var Header = []string{"ID", "Date", "Amount", "Currency", "Category", "Description", "Source", "AccountID"}

// Row renders a transaction in Header order. Transfers are mirrored like any
// other transaction; the Source column tells them apart.
func Row(t core.Transaction) []any {
	date, ok := t.DateKey()
	if !ok {
		date = t.Timestamp
	}
	return []any{
		t.ID,
		date,
		t.Amount.Float(),
		t.Currency,
		t.Category,
		t.Description,
		string(t.Source),
		t.AccountID,
	}
}
