package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SourceManual    Source = "manual"
	SourceImport    Source = "import"
	SourceTransfer  Source = "transfer"
	SourceRecurring Source = "recurring"
)

const (
	AccountCash  AccountType = "cash"
	AccountBank  AccountType = "bank"
	AccountCard  AccountType = "card"
	AccountOther AccountType = "other"
)

type (
	// Source is the origin tag of a transaction. SourceTransfer is reserved:
	// transfers are listed but never summed.
	Source string

	AccountType string

	Transaction struct {
		ID          string    `json:"id"`
		AccountID   string    `json:"account_id,omitempty"`
		Amount      Money     `json:"amount"`
		Currency    string    `json:"currency"`
		Category    string    `json:"category"`
		Description string    `json:"description,omitempty"`
		Source      Source    `json:"source"`
		Timestamp   string    `json:"timestamp"`
		RawOrigin   string    `json:"raw_origin,omitempty"`
		CreatedAt   time.Time `json:"created_at,omitempty"`
	}

	Account struct {
		ID       string      `json:"id"`
		Name     string      `json:"name"`
		Type     AccountType `json:"type"`
		Currency string      `json:"currency"`
		Balance  Money       `json:"balance"`
		Last4    string      `json:"last4,omitempty"`
	}

	// AccountSummary is computed by the store and trusted as-is.
	AccountSummary struct {
		Assets      Money `json:"assets"`
		Liabilities Money `json:"liabilities"`
		Net         Money `json:"net"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrMissingCategory    = errors.New("missing category")
	ErrMissingTimestamp   = errors.New("missing timestamp")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidSource      = errors.New("invalid source")
	ErrEmptyName          = errors.New("empty account name")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidLast4       = errors.New("last4 must be exactly 4 digits")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

var validationErrors = []error{
	ErrInvalidAmount, ErrMissingCategory, ErrMissingTimestamp, ErrInvalidTimestamp,
	ErrInvalidSource, ErrEmptyName, ErrInvalidAccountType, ErrInvalidLast4,
	ErrDescriptionTooLong,
}

// IsValidation reports whether err stems from rejected user input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransfer reports whether the transaction moves funds between own accounts.
func (t Transaction) IsTransfer() bool {
	return t.Source == SourceTransfer
}

// DateKey returns the YYYY-MM-DD prefix of the timestamp. ok is false when the
// timestamp is missing or its date part does not parse.
func (t Transaction) DateKey() (key string, ok bool) {
	return DateKeyOf(t.Timestamp)
}

// DateKeyOf extracts the calendar date prefix of a timestamp string.
func DateKeyOf(ts string) (string, bool) {
	ts = strings.TrimSpace(ts)
	if len(ts) < 10 {
		return "", false
	}
	key := ts[:10]
	if _, err := time.Parse(time.DateOnly, key); err != nil {
		return "", false
	}
	return key, true
}

func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceImport, SourceTransfer, SourceRecurring:
		return true
	default:
		return false
	}
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountBank, AccountCard, AccountOther:
		return true
	default:
		return false
	}
}

// Validate checks a transaction about to be persisted.
func (t Transaction) Validate() error {
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Timestamp) == "" {
		return ErrMissingTimestamp
	}
	if _, ok := t.DateKey(); !ok {
		return ErrInvalidTimestamp
	}
	if !t.Source.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, t.Source)
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, a.Type)
	}
	if a.Last4 != "" && !isLast4(a.Last4) {
		return ErrInvalidLast4
	}
	return nil
}

func isLast4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Summarize derives the summary the store reports for a set of accounts.
// Assets are positive balances, liabilities the magnitude of negative ones.
func Summarize(accounts []Account) AccountSummary {
	var s AccountSummary
	for _, a := range accounts {
		if a.Balance.Cents >= 0 {
			s.Assets = s.Assets.Add(a.Balance)
		} else {
			s.Liabilities = s.Liabilities.Add(a.Balance.Abs())
		}
	}
	s.Net = s.Assets.Sub(s.Liabilities)
	return s
}
