package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/core"
	"saldo/internal/sheets"
)

// fakeSheet serves the subset of the Sheets values API used by Client.
type fakeSheet struct {
	mu      sync.Mutex
	rows    [][]any
	appends int
	clears  []string
}

var clearRow = regexp.MustCompile(`!A(\d+):H\d+:clear$`)

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		col := make([][]any, 0, len(f.rows))
		for _, row := range f.rows {
			if len(row) == 0 {
				col = append(col, []any{})
				continue
			}
			col = append(col, []any{row[0]})
		}
		json.NewEncoder(w).Encode(map[string]any{"values": col})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		f.appends++
		n := len(f.rows)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": fmt.Sprintf("'Transactions'!A%d:H%d", n, n)},
		})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		m := clearRow.FindStringSubmatch(path)
		if m == nil {
			http.Error(w, "bad range "+path, http.StatusBadRequest)
			return
		}
		f.clears = append(f.clears, m[1])
		var idx int
		fmt.Sscan(m[1], &idx)
		if idx >= 1 && idx <= len(f.rows) {
			f.rows[idx-1] = []any{}
		}
		json.NewEncoder(w).Encode(map[string]any{"clearedRange": path})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewWithService(svc, "sheet-id", "Transactions")
}

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID: id, AccountID: "a1", Amount: core.Cents(-1250), Currency: "EUR",
		Category: "Food", Description: "lunch", Source: core.SourceManual,
		Timestamp: "2025-11-02T12:30:00Z",
	}
}

func TestAppendTransaction(t *testing.T) {
	f := &fakeSheet{rows: [][]any{{"ID", "Date"}}}
	c := newTestClient(t, f)

	ref, err := c.AppendTransaction(context.Background(), sampleTx("t1"))
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if ref != "'Transactions'!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
	if len(f.rows) != 2 || f.rows[1][0] != "t1" || f.rows[1][1] != "2025-11-02" {
		t.Fatalf("unexpected rows: %v", f.rows)
	}
}

func TestAppendTransactionSkipsDuplicates(t *testing.T) {
	f := &fakeSheet{rows: [][]any{{"ID"}, {"t1"}}}
	c := newTestClient(t, f)

	ref, err := c.AppendTransaction(context.Background(), sampleTx("t1"))
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if f.appends != 0 {
		t.Errorf("expected no append for an already mirrored id, got %d", f.appends)
	}
	if ref != "'Transactions'!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
}

func TestDeleteTransaction(t *testing.T) {
	f := &fakeSheet{rows: [][]any{{"ID"}, {"t1"}, {"t2"}}}
	c := newTestClient(t, f)

	if err := c.DeleteTransaction(context.Background(), "t2"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if len(f.clears) != 1 || f.clears[0] != "3" {
		t.Fatalf("expected row 3 cleared, got %v", f.clears)
	}

	err := c.DeleteTransaction(context.Background(), "missing")
	if !errors.Is(err, sheets.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	c := &Client{spreadsheetID: "x", sheet: "Transactions"}
	if _, err := c.AppendTransaction(context.Background(), sampleTx("t1")); err == nil {
		t.Error("expected error without a service")
	}
	if err := c.DeleteTransaction(context.Background(), "t1"); err == nil {
		t.Error("expected error without a service")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := New(context.Background(), Config{}); err == nil || err.Error() != "missing spreadsheet id" {
		t.Errorf("expected missing spreadsheet id, got %v", err)
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected missing credentials error, got %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestRowIndex(t *testing.T) {
	values := [][]any{{"ID"}, {}, {" t1 "}, {"t2", "x"}}
	tests := []struct {
		id   string
		want int
	}{
		{"t1", 3},
		{"t2", 4},
		{"t3", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := rowIndex(values, tt.id); got != tt.want {
			t.Errorf("rowIndex(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestA1(t *testing.T) {
	if got := a1("Transactions", "A:A"); got != "'Transactions'!A:A" {
		t.Errorf("got %q", got)
	}
	if got := a1("Bob's 2025", "A1:H1"); got != "'Bob''s 2025'!A1:H1" {
		t.Errorf("got %q", got)
	}
}
