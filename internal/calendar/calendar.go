// Package calendar lays out a month as week rows and marks each day with the
// sign of its net activity.
package calendar

import (
	"fmt"
	"time"

	"saldo/internal/core"
)

// Indicator is the dot drawn under a day.
type Indicator int

const (
	NoActivity Indicator = iota
	Positive
	Negative
	Zero
)

func (i Indicator) String() string {
	switch i {
	case NoActivity:
		return "none"
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	case Zero:
		return "zero"
	default:
		return "unknown"
	}
}

// MarshalText lets indicators render by name in JSON.
func (i Indicator) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Indicator) UnmarshalText(b []byte) error {
	for _, v := range []Indicator{NoActivity, Positive, Negative, Zero} {
		if v.String() == string(b) {
			*i = v
			return nil
		}
	}
	return fmt.Errorf("unknown indicator %q", b)
}

// Cell is one slot of the grid. Day is 0 for padding cells.
type Cell struct {
	Day       int        `json:"day"`
	Date      string     `json:"date,omitempty"`
	Net       core.Money `json:"net"`
	Indicator Indicator  `json:"indicator"`
}

// Blank reports whether the cell pads the first or last week.
func (c Cell) Blank() bool { return c.Day == 0 }

// Grid returns the week rows for a month given as a zero-based index. Leading
// blanks equal the weekday of the first day (Sunday = 0) and the last row is
// padded to seven cells.
func Grid(year, month0 int) ([][]Cell, error) {
	if month0 < 0 || month0 > 11 {
		return nil, fmt.Errorf("month index %d out of range", month0)
	}
	m := core.Month{Year: year, Month: time.Month(month0 + 1)}
	lead := int(m.First().Weekday())
	days := m.Days()

	cells := make([]Cell, 0, 42)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{})
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, Cell{Day: d, Date: fmt.Sprintf("%s-%02d", m, d)})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{})
	}

	rows := make([][]Cell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		rows = append(rows, cells[i:i+7])
	}
	return rows, nil
}

// IndicatorFor returns the indicator of one day. A day whose only activity is
// transfers shows Zero: it has transactions but a zero counted net.
func IndicatorFor(txs []core.Transaction, date string) (Indicator, core.Money) {
	var net core.Money
	seen := false
	for _, t := range txs {
		if key, ok := t.DateKey(); !ok || key != date {
			continue
		}
		seen = true
		if !t.IsTransfer() {
			net = net.Add(t.Amount)
		}
	}
	return classify(seen, net), net
}

func classify(seen bool, net core.Money) Indicator {
	switch {
	case !seen:
		return NoActivity
	case net.Cents > 0:
		return Positive
	case net.Cents < 0:
		return Negative
	default:
		return Zero
	}
}

// Month is a projected calendar page.
type Month struct {
	Month string   `json:"month"`
	Weeks [][]Cell `json:"weeks"`
}

// Project builds the grid and fills in every day's net and indicator in a
// single pass over txs.
func Project(year, month0 int, txs []core.Transaction) (Month, error) {
	rows, err := Grid(year, month0)
	if err != nil {
		return Month{}, err
	}
	m := core.Month{Year: year, Month: time.Month(month0 + 1)}

	type acc struct {
		seen bool
		net  core.Money
	}
	byDate := make(map[string]*acc)
	for _, t := range txs {
		key, ok := t.DateKey()
		if !ok || !m.Contains(key) {
			continue
		}
		a := byDate[key]
		if a == nil {
			a = &acc{}
			byDate[key] = a
		}
		a.seen = true
		if !t.IsTransfer() {
			a.net = a.net.Add(t.Amount)
		}
	}

	for _, row := range rows {
		for i := range row {
			if row[i].Blank() {
				continue
			}
			if a := byDate[row[i].Date]; a != nil {
				row[i].Net = a.net
				row[i].Indicator = classify(a.seen, a.net)
			}
		}
	}
	return Month{Month: m.String(), Weeks: rows}, nil
}
