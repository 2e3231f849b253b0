package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestListTransactionsDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/transactions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"t1","amount":-12.5,"category":"Food","source":"manual","timestamp":"2025-11-02T10:00:00Z"}]`))
	})

	txs, err := c.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "t1" || txs[0].Amount.Cents != -1250 {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
}

func TestCreateTransactionSendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing content type")
		}
		var in core.Transaction
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		in.ID = "new-id"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	})

	got, err := c.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.Cents(-2000), Category: "Food", Source: core.SourceManual, Timestamp: "2025-11-02",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != "new-id" || got.Amount.Cents != -2000 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, func(err error) bool { return errors.Is(err, store.ErrNotFound) }},
		{"validation", http.StatusUnprocessableEntity, func(err error) bool { return errors.Is(err, ErrValidation) }},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == 500 && se.Message == "boom"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"boom"}`))
			})
			err := c.DeleteAccount(context.Background(), "a1")
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDeleteEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.EscapedPath() != "/api/v1/transactions/a%2Fb" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.DeleteTransaction(context.Background(), "a/b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("ftp://example.com", 0); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
