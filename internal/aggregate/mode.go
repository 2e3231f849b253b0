package aggregate

import (
	"errors"
	"strings"
)

// ViewMode selects how the transaction list is grouped and summed.
type ViewMode int

const (
	ViewDaily ViewMode = iota
	ViewMonthly
	ViewTotal
)

var ErrUnknownMode = errors.New("unknown view mode")

func (m ViewMode) String() string {
	switch m {
	case ViewDaily:
		return "daily"
	case ViewMonthly:
		return "monthly"
	case ViewTotal:
		return "total"
	default:
		return "unknown"
	}
}

// ParseViewMode maps "daily", "monthly" and "total" to a ViewMode.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "":
		return ViewDaily, nil
	case "monthly", "month":
		return ViewMonthly, nil
	case "total", "all":
		return ViewTotal, nil
	default:
		return 0, ErrUnknownMode
	}
}
