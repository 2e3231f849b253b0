package http

import (
	"context"
	"encoding/json"
	"net/http"

	"saldo/internal/aggregate"
	"saldo/internal/calendar"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/stats"
)

type insightFunc func(ctx context.Context, q InsightQuery, txs []core.Transaction) (any, error)

type dayView struct {
	aggregate.DayBucket
	Net core.Money `json:"net"`
}

type monthView struct {
	aggregate.MonthBucket
	Net core.Money `json:"net"`
}

// cachedInsight serves fn through the insight cache. Entries are keyed by the
// route and the canonical query and dropped whenever the ledger changes.
func (s *Server) cachedInsight(fn insightFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q, err := ParseInsightQuery(r.URL.Query(), s.now())
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		key := r.URL.Path + "?" + q.Key()
		if body, ok := s.insights.Get(key); ok {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, body)
			return
		}

		gen := s.generation.Load()
		txs, err := s.ledger.ListTransactions(ctx)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		txs = q.Filter.Apply(txs)

		result, err := fn(ctx, q, txs)
		if err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Insight computation failed", "path", r.URL.Path, "error", err)
			respondWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		body, err := json.Marshal(result)
		if err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Insight encoding failed", "path", r.URL.Path, "error", err)
			respondWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		// a purge while computing means txs may already be stale
		if s.generation.Load() == gen {
			s.insights.Set(key, body)
		}
		w.Header().Set("X-Cache", "MISS")
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) insightDays(_ context.Context, q InsightQuery, txs []core.Transaction) (any, error) {
	buckets := aggregate.GroupByDay(aggregate.InMonth(txs, q.Month))
	out := make([]dayView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, dayView{DayBucket: b, Net: b.Net()})
	}
	return map[string]any{"month": q.Month.String(), "filter": q.Filter.Key(), "days": out}, nil
}

func (s *Server) insightMonths(_ context.Context, q InsightQuery, txs []core.Transaction) (any, error) {
	buckets := aggregate.MonthsOfYear(txs, q.Month.Year)
	out := make([]monthView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, monthView{MonthBucket: b, Net: b.Net()})
	}
	return map[string]any{"year": q.Month.Year, "filter": q.Filter.Key(), "months": out}, nil
}

func (s *Server) insightSummary(_ context.Context, q InsightQuery, txs []core.Transaction) (any, error) {
	sum, err := aggregate.Summarize(q.Mode, txs, q.Month)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"month":   q.Month.String(),
		"mode":    q.Mode.String(),
		"filter":  q.Filter.Key(),
		"summary": sum,
	}, nil
}

func (s *Server) insightCategories(_ context.Context, q InsightQuery, txs []core.Transaction) (any, error) {
	res, err := stats.Compute(txs, stats.Window{Kind: q.Window, Month: q.Month}, q.Kind, s.registry)
	if err != nil {
		return nil, err
	}
	if res.Categories == nil {
		res.Categories = []stats.CategoryShare{}
	}
	return res, nil
}

func (s *Server) insightCalendar(_ context.Context, q InsightQuery, txs []core.Transaction) (any, error) {
	page, err := calendar.Project(q.Month.Year, int(q.Month.Month)-1, txs)
	if err != nil {
		return nil, err
	}
	return page, nil
}
