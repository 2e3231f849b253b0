package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"saldo/internal/aggregate"
	"saldo/internal/core"
	"saldo/internal/filter"
	"saldo/internal/stats"
)

func TestParseInsightQuery(t *testing.T) {
	now := time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   string
		want    InsightQuery
		wantErr bool
	}{
		{
			name:  "defaults",
			query: "",
			want:  InsightQuery{Month: core.Month{Year: 2025, Month: time.November}},
		},
		{
			name:  "explicit values",
			query: "month=2024-02&mode=total&kind=income&window=all&account=a1",
			want: InsightQuery{
				Month:  core.Month{Year: 2024, Month: time.February},
				Filter: filter.Account("a1"),
				Mode:   aggregate.ViewTotal,
				Kind:   core.KindIncome,
				Window: stats.WindowAllTime,
			},
		},
		{
			name:  "category is folded",
			query: "category=%20Eating%20%20Out",
			want: InsightQuery{
				Month:  core.Month{Year: 2025, Month: time.November},
				Filter: filter.Category("eating out"),
			},
		},
		{name: "bad month", query: "month=11-2025", wantErr: true},
		{name: "both filters", query: "account=a1&category=food", wantErr: true},
		{name: "bad mode", query: "mode=weekly", wantErr: true},
		{name: "bad kind", query: "kind=transfer", wantErr: true},
		{name: "bad window", query: "window=year", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got, err := ParseInsightQuery(values, now)
			if tt.wantErr {
				if !errors.Is(err, errBadQuery) {
					t.Fatalf("expected errBadQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInsightQueryKeyCanonical(t *testing.T) {
	now := time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC)
	a, _ := ParseInsightQuery(url.Values{"category": {"FOOD"}}, now)
	b, _ := ParseInsightQuery(url.Values{"category": {" food"}, "mode": {"daily"}, "month": {"2025-11"}}, now)
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	c, _ := ParseInsightQuery(url.Values{"category": {"food"}, "kind": {"income"}}, now)
	if a.Key() == c.Key() {
		t.Fatal("kind must be part of the key")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Cash"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"two values", `{"name":"a"}{"name":"b"}`, true},
		{"too large", `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst struct {
				Name string `json:"name"`
			}
			err := decodeJSON(httptest.NewRecorder(), req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeTransaction(t *testing.T) {
	tx := core.Transaction{
		ID:          "client-chosen",
		Category:    "  eating \x00 out ",
		Description: "coffee\x07",
		Currency:    " usd",
		CreatedAt:   time.Now(),
	}
	sanitizeTransaction(&tx)
	if tx.ID != "" || !tx.CreatedAt.IsZero() {
		t.Error("server-owned fields must be cleared")
	}
	if tx.Category != "eating out" {
		t.Errorf("category = %q", tx.Category)
	}
	if tx.Description != "coffee" {
		t.Errorf("description = %q", tx.Description)
	}
	if tx.Currency != "USD" || tx.Source != core.SourceManual {
		t.Errorf("currency/source = %q/%q", tx.Currency, tx.Source)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
