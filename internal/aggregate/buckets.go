// Package aggregate partitions transaction lists into day and month buckets
// and computes income, expense and net totals over them.
//
// Transfers are listed in every bucket but never counted in a sum.
package aggregate

import (
	"fmt"
	"sort"

	"saldo/internal/core"
)

// DayBucket groups the transactions of one calendar day.
type DayBucket struct {
	Date    string             `json:"date"`
	Income  core.Money         `json:"income"`
	Expense core.Money         `json:"expense"`
	Items   []core.Transaction `json:"items"`
}

// MonthBucket groups the transactions of one calendar month.
type MonthBucket struct {
	Month   string             `json:"month"`
	Income  core.Money         `json:"income"`
	Expense core.Money         `json:"expense"`
	Items   []core.Transaction `json:"items"`
}

// Net is income minus expense.
func (b DayBucket) Net() core.Money { return b.Income.Sub(b.Expense) }

// Net is income minus expense.
func (b MonthBucket) Net() core.Money { return b.Income.Sub(b.Expense) }

// Summary holds the totals shown above a list.
type Summary struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Net     core.Money `json:"net"`
}

// accumulate adds a transaction's amount to the running sums. Amounts above
// zero are income; the rest counts as expense by magnitude, so zero adds
// nothing.
func accumulate(income, expense *core.Money, t core.Transaction) {
	if t.IsTransfer() {
		return
	}
	if t.Amount.Cents > 0 {
		*income = income.Add(t.Amount)
		return
	}
	*expense = expense.Add(t.Amount.Abs())
}

// GroupByDay buckets transactions by the date prefix of their timestamp,
// newest day first. Transactions without a usable date are dropped.
func GroupByDay(txs []core.Transaction) []DayBucket {
	index := make(map[string]int)
	var out []DayBucket
	for _, t := range txs {
		key, ok := t.DateKey()
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(out)
			index[key] = i
			out = append(out, DayBucket{Date: key})
		}
		b := &out[i]
		b.Items = append(b.Items, t)
		accumulate(&b.Income, &b.Expense, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// GroupByMonth buckets transactions by year and month, newest first.
func GroupByMonth(txs []core.Transaction) []MonthBucket {
	index := make(map[string]int)
	var out []MonthBucket
	for _, t := range txs {
		key, ok := t.DateKey()
		if !ok {
			continue
		}
		key = key[:7]
		i, seen := index[key]
		if !seen {
			i = len(out)
			index[key] = i
			out = append(out, MonthBucket{Month: key})
		}
		b := &out[i]
		b.Items = append(b.Items, t)
		accumulate(&b.Income, &b.Expense, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

// MonthsOfYear is GroupByMonth restricted to the buckets of one year.
func MonthsOfYear(txs []core.Transaction, year int) []MonthBucket {
	prefix := fmt.Sprintf("%04d-", year)
	all := GroupByMonth(txs)
	out := make([]MonthBucket, 0, len(all))
	for _, b := range all {
		if len(b.Month) == 7 && b.Month[:5] == prefix {
			out = append(out, b)
		}
	}
	return out
}

// InMonth returns the transactions dated within m, in input order.
func InMonth(txs []core.Transaction, m core.Month) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if key, ok := t.DateKey(); ok && m.Contains(key) {
			out = append(out, t)
		}
	}
	return out
}

// UpToEndOfMonth returns every transaction dated on or before the last day of
// m, in input order.
func UpToEndOfMonth(txs []core.Transaction, m core.Month) []core.Transaction {
	last := m.LastDayKey()
	var out []core.Transaction
	for _, t := range txs {
		if key, ok := t.DateKey(); ok && key <= last {
			out = append(out, t)
		}
	}
	return out
}

// Sum totals a flat list, skipping transfers.
func Sum(txs []core.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		accumulate(&s.Income, &s.Expense, t)
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// Summarize computes the header totals for a view mode relative to ref.
func Summarize(mode ViewMode, txs []core.Transaction, ref core.Month) (Summary, error) {
	switch mode {
	case ViewDaily:
		return Sum(InMonth(txs, ref)), nil
	case ViewMonthly:
		var s Summary
		year := fmt.Sprintf("%04d", ref.Year)
		for _, b := range GroupByMonth(txs) {
			if b.Month[:4] != year {
				continue
			}
			s.Income = s.Income.Add(b.Income)
			s.Expense = s.Expense.Add(b.Expense)
		}
		s.Net = s.Income.Sub(s.Expense)
		return s, nil
	case ViewTotal:
		return Sum(UpToEndOfMonth(txs, ref)), nil
	default:
		return Summary{}, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}
}
