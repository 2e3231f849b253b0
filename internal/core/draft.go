package core

import (
	"strings"
	"time"
)

// Kind is the direction chosen in the entry form.
type Kind int

const (
	KindExpense Kind = iota
	KindIncome
)

func (k Kind) String() string {
	switch k {
	case KindExpense:
		return "expense"
	case KindIncome:
		return "income"
	default:
		return "unknown"
	}
}

// ParseKind maps "expense"/"income" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense":
		return KindExpense, true
	case "income":
		return KindIncome, true
	default:
		return 0, false
	}
}

// Matches reports whether a signed amount belongs to the kind. Zero matches
// neither.
func (k Kind) Matches(m Money) bool {
	switch k {
	case KindExpense:
		return m.Cents < 0
	case KindIncome:
		return m.Cents > 0
	default:
		return false
	}
}

// TransactionDraft is raw user input for a new transaction.
type TransactionDraft struct {
	Kind        Kind
	Amount      string
	Currency    string
	Category    string
	Description string
	AccountID   string
	Source      Source
	Timestamp   string
	RawOrigin   string
}

// Build validates the draft and returns the transaction to send to the store.
// Expense drafts produce a negative amount.
func (d TransactionDraft) Build(requireCategory bool) (Transaction, error) {
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, err
	}
	if d.Kind == KindExpense {
		amount = amount.Neg()
	}
	category := strings.Join(strings.Fields(d.Category), " ")
	if requireCategory && category == "" {
		return Transaction{}, ErrMissingCategory
	}
	ts := strings.TrimSpace(d.Timestamp)
	if ts == "" {
		return Transaction{}, ErrMissingTimestamp
	}
	source := d.Source
	if source == "" {
		source = SourceManual
	}
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	t := Transaction{
		AccountID:   strings.TrimSpace(d.AccountID),
		Amount:      amount,
		Currency:    currency,
		Category:    category,
		Description: strings.TrimSpace(d.Description),
		Source:      source,
		Timestamp:   ts,
		RawOrigin:   strings.TrimSpace(d.RawOrigin),
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// DefaultCurrency is applied when a draft leaves the currency blank.
const DefaultCurrency = "EUR"

// AccountDraft is raw user input for a new account.
type AccountDraft struct {
	Name     string
	Type     AccountType
	Currency string
	Balance  string
	Last4    string
}

func (d AccountDraft) Build() (Account, error) {
	var balance Money
	if strings.TrimSpace(d.Balance) != "" {
		b, err := ParseSignedAmount(d.Balance)
		if err != nil {
			return Account{}, err
		}
		balance = b
	}
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	a := Account{
		Name:     strings.TrimSpace(d.Name),
		Type:     AccountType(strings.ToLower(strings.TrimSpace(string(d.Type)))),
		Currency: currency,
		Balance:  balance,
		Last4:    strings.TrimSpace(d.Last4),
	}
	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	return a, nil
}

// NowTimestamp formats t the way drafts and stores expect.
func NowTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
