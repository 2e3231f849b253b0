// Package stats aggregates category totals and percentage shares for the pie
// chart screen.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"saldo/internal/aggregate"
	"saldo/internal/core"
)

// WindowKind is the time scope of a statistics query.
type WindowKind int

const (
	WindowMonth WindowKind = iota
	WindowAllTime
)

func (w WindowKind) String() string {
	switch w {
	case WindowMonth:
		return "month"
	case WindowAllTime:
		return "all"
	default:
		return "unknown"
	}
}

// ParseWindow maps "month" and "all" to a WindowKind.
func ParseWindow(s string) (WindowKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month":
		return WindowMonth, nil
	case "all", "all-time", "alltime":
		return WindowAllTime, nil
	default:
		return 0, fmt.Errorf("unknown window %q", s)
	}
}

// Window is a WindowKind plus the reference month it applies to.
type Window struct {
	Kind  WindowKind
	Month core.Month
}

// Apply narrows txs to the window.
func (w Window) Apply(txs []core.Transaction) ([]core.Transaction, error) {
	switch w.Kind {
	case WindowMonth:
		return aggregate.InMonth(txs, w.Month), nil
	case WindowAllTime:
		return txs, nil
	default:
		return nil, fmt.Errorf("unknown window kind %d", w.Kind)
	}
}

// CategoryShare is one slice of the chart.
type CategoryShare struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Total   core.Money `json:"total"`
	Percent float64    `json:"percent"`
	Count   int        `json:"count"`
}

// Result is the output of Compute.
type Result struct {
	Kind       string          `json:"kind"`
	Window     string          `json:"window"`
	Total      core.Money      `json:"total"`
	Categories []CategoryShare `json:"categories"`
}

// Empty reports whether there is nothing to chart.
func (r Result) Empty() bool { return r.Total.IsZero() }

// Compute groups the windowed, non-transfer transactions of the given kind by
// category. Labels resolve through reg; categories outside the registry keep
// the first spelling seen.
func Compute(txs []core.Transaction, w Window, kind core.Kind, reg *core.Registry) (Result, error) {
	if reg == nil {
		reg = core.DefaultRegistry
	}
	windowed, err := w.Apply(txs)
	if err != nil {
		return Result{}, err
	}

	res := Result{Kind: kind.String(), Window: w.Kind.String(), Categories: []CategoryShare{}}
	index := make(map[string]int)
	for _, t := range windowed {
		if t.IsTransfer() || !kind.Matches(t.Amount) {
			continue
		}
		key := core.CategoryKey(t.Category)
		i, ok := index[key]
		if !ok {
			label, known := reg.Lookup(key)
			if !known {
				label = strings.Join(strings.Fields(t.Category), " ")
			}
			i = len(res.Categories)
			index[key] = i
			res.Categories = append(res.Categories, CategoryShare{Key: key, Label: label})
		}
		amount := t.Amount.Abs()
		res.Categories[i].Total = res.Categories[i].Total.Add(amount)
		res.Categories[i].Count++
		res.Total = res.Total.Add(amount)
	}

	if !res.Total.IsZero() {
		for i := range res.Categories {
			res.Categories[i].Percent = float64(res.Categories[i].Total.Cents) / float64(res.Total.Cents) * 100
		}
	}
	sort.SliceStable(res.Categories, func(i, j int) bool {
		a, b := res.Categories[i], res.Categories[j]
		if a.Total != b.Total {
			return a.Total.Cents > b.Total.Cents
		}
		return a.Label < b.Label
	})
	return res, nil
}
