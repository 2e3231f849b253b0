package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"saldo/internal/core"
	"saldo/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 503 while the store cannot be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	storeCheck := "ok"
	if err := s.ledger.Ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "error", err)
		status, code = "not_ready", http.StatusServiceUnavailable
		storeCheck = "failed: " + err.Error()
	}
	respondWithJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks": map[string]any{
			"store":        storeCheck,
			"cache":        map[string]int{"insight_entries": s.insights.Size()},
			"rate_limiter": map[string]int{"active_clients": s.limiter.ActiveClients()},
		},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.registry.All())
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondWithJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	sanitizeTransaction(&t)
	if err := t.Validate(); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.ledger.CreateTransaction(ctx, t)
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogTransactionCreated(ctx,
		created.ID, created.AccountID, created.Amount.Cents, created.Category, string(created.Source))
	w.Header().Set("Location", "/api/v1/transactions/"+created.ID)
	respondWithJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
		log.FieldTxID, id, log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := decodeJSON(w, r, &a); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	sanitizeAccount(&a)
	if err := a.Validate(); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	created, err := s.ledger.CreateAccount(r.Context(), a)
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/accounts/"+created.ID)
	respondWithJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Account deleted",
		log.FieldAccountID, id, log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccountsSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.AccountsSummary(r.Context())
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sum)
}
