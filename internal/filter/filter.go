// Package filter narrows a transaction list by account or by category before
// it reaches any aggregator.
package filter

import (
	"fmt"
	"strings"

	"saldo/internal/core"
)

// Mode is the active filter axis.
type Mode int

const (
	None Mode = iota
	ByAccount
	ByCategory
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case ByAccount:
		return "account"
	case ByCategory:
		return "category"
	default:
		return "unknown"
	}
}

// ParseMode maps "none", "account" and "category" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "account":
		return ByAccount, nil
	case "category":
		return ByCategory, nil
	default:
		return None, fmt.Errorf("unknown filter mode %q", s)
	}
}

// Filter holds the mode and at most one selection. Selecting on one axis
// clears the other.
type Filter struct {
	mode      Mode
	accountID string
	category  string
}

// Account returns a filter selecting a single account.
func Account(id string) Filter {
	var f Filter
	f.SelectAccount(id)
	return f
}

// Category returns a filter selecting a single category.
func Category(label string) Filter {
	var f Filter
	f.SelectCategory(label)
	return f
}

func (f Filter) Mode() Mode          { return f.mode }
func (f Filter) AccountID() string   { return f.accountID }
func (f Filter) CategoryKey() string { return f.category }

// SetMode switches axis without making a selection; the list stays
// unfiltered until one is made.
func (f *Filter) SetMode(m Mode) {
	if f.mode == m {
		return
	}
	f.mode = m
	f.accountID = ""
	f.category = ""
}

func (f *Filter) SelectAccount(id string) {
	f.mode = ByAccount
	f.accountID = strings.TrimSpace(id)
	f.category = ""
}

// SelectCategory selects the category named by label. A blank label leaves
// the filter in category mode with no selection.
func (f *Filter) SelectCategory(label string) {
	f.mode = ByCategory
	f.category = ""
	if strings.TrimSpace(label) != "" {
		f.category = core.CategoryKey(label)
	}
	f.accountID = ""
}

func (f *Filter) Clear() {
	*f = Filter{}
}

// Active reports whether Apply would drop anything.
func (f Filter) Active() bool {
	switch f.mode {
	case ByAccount:
		return f.accountID != ""
	case ByCategory:
		return f.category != ""
	default:
		return false
	}
}

// Apply returns the transactions passing the filter, in input order. An
// inactive filter returns the input unchanged.
func (f Filter) Apply(txs []core.Transaction) []core.Transaction {
	if !f.Active() {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (f Filter) match(t core.Transaction) bool {
	switch f.mode {
	case ByAccount:
		return t.AccountID == f.accountID
	case ByCategory:
		return core.CategoryKey(t.Category) == f.category
	default:
		return true
	}
}

// Key identifies the filter in cache keys and logs.
func (f Filter) Key() string {
	switch f.mode {
	case ByAccount:
		return "account:" + f.accountID
	case ByCategory:
		return "category:" + f.category
	default:
		return "none"
	}
}
