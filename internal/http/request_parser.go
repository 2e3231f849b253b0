package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"saldo/internal/aggregate"
	"saldo/internal/core"
	"saldo/internal/filter"
	"saldo/internal/stats"
)

var errBadQuery = errors.New("invalid query")

// InsightQuery holds the parameters shared by the insight endpoints.
type InsightQuery struct {
	Month  core.Month
	Filter filter.Filter
	Mode   aggregate.ViewMode
	Kind   core.Kind
	Window stats.WindowKind
}

// ParseInsightQuery reads month, account, category, mode, kind and window
// from the query string. Missing values default to the month containing now,
// no filter, daily mode, expenses and the monthly window.
func ParseInsightQuery(query url.Values, now time.Time) (InsightQuery, error) {
	q := InsightQuery{Month: core.MonthOf(now)}

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := core.ParseMonth(v)
		if err != nil {
			return InsightQuery{}, fmt.Errorf("%w: month must be YYYY-MM", errBadQuery)
		}
		q.Month = m
	}

	account := strings.TrimSpace(query.Get("account"))
	category := sanitizeInput(query.Get("category"))
	switch {
	case account != "" && category != "":
		return InsightQuery{}, fmt.Errorf("%w: account and category are mutually exclusive", errBadQuery)
	case account != "":
		q.Filter = filter.Account(account)
	case category != "":
		q.Filter = filter.Category(category)
	}

	mode, err := aggregate.ParseViewMode(query.Get("mode"))
	if err != nil {
		return InsightQuery{}, fmt.Errorf("%w: mode must be daily, monthly or total", errBadQuery)
	}
	q.Mode = mode

	if v := strings.TrimSpace(query.Get("kind")); v != "" {
		k, ok := core.ParseKind(v)
		if !ok {
			return InsightQuery{}, fmt.Errorf("%w: kind must be expense or income", errBadQuery)
		}
		q.Kind = k
	}

	window, err := stats.ParseWindow(query.Get("window"))
	if err != nil {
		return InsightQuery{}, fmt.Errorf("%w: window must be month or all", errBadQuery)
	}
	q.Window = window
	return q, nil
}

// Key is a canonical form of the query, used in cache keys.
func (q InsightQuery) Key() string {
	return strings.Join([]string{
		q.Month.String(), q.Filter.Key(), q.Mode.String(), q.Kind.String(), q.Window.String(),
	}, "|")
}

// decodeJSON reads a single JSON value from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// sanitizeTransaction normalizes free-text fields and drops server-owned ones.
func sanitizeTransaction(t *core.Transaction) {
	t.ID = ""
	t.CreatedAt = time.Time{}
	t.AccountID = strings.TrimSpace(t.AccountID)
	t.Category = strings.Join(strings.Fields(sanitizeInput(t.Category)), " ")
	t.Description = sanitizeInput(t.Description)
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if t.Currency == "" {
		t.Currency = core.DefaultCurrency
	}
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	t.Timestamp = strings.TrimSpace(t.Timestamp)
	t.RawOrigin = sanitizeInput(t.RawOrigin)
}

func sanitizeAccount(a *core.Account) {
	a.ID = ""
	a.Name = sanitizeInput(a.Name)
	a.Type = core.AccountType(strings.ToLower(strings.TrimSpace(string(a.Type))))
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if a.Currency == "" {
		a.Currency = core.DefaultCurrency
	}
	a.Last4 = strings.TrimSpace(a.Last4)
}
