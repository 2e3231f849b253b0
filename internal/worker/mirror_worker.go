package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/sheets"
	"saldo/internal/store"
)

var mirrorOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "saldo_mirror_operations_total",
	Help: "Spreadsheet mirror operations by action and result.",
}, []string{"action", "result"})

// MirrorWorker applies change messages to a spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.TransactionMirror
	source store.TransactionStore
}

// NewMirrorWorker creates a worker. source is optional; when set it is used to
// read back transactions missing from a message and by Reconcile.
func NewMirrorWorker(mirror sheets.TransactionMirror, source store.TransactionStore) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, source: source}
}

// HandleChange processes one message. A returned error requeues it.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Entity != amqp.EntityTransaction {
		slog.DebugContext(ctx, "Ignoring change message", "entity", msg.Entity, "action", msg.Action, "id", msg.ID)
		return nil
	}
	switch msg.Action {
	case amqp.ActionCreated:
		return w.handleCreated(ctx, msg)
	case amqp.ActionDeleted:
		return w.handleDeleted(ctx, msg)
	default:
		return nil
	}
}

func (w *MirrorWorker) handleCreated(ctx context.Context, msg *amqp.ChangeMessage) error {
	tx := msg.Transaction
	if tx == nil {
		found, err := w.lookup(ctx, msg.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted before we saw it; nothing to mirror.
				slog.WarnContext(ctx, "Created transaction no longer exists", "id", msg.ID)
				mirrorOps.WithLabelValues("append", "skipped").Inc()
				return nil
			}
			return err
		}
		tx = &found
	}
	ref, err := w.mirror.AppendTransaction(ctx, *tx)
	if err != nil {
		mirrorOps.WithLabelValues("append", "error").Inc()
		return fmt.Errorf("append to mirror: %w", err)
	}
	mirrorOps.WithLabelValues("append", "ok").Inc()
	slog.InfoContext(ctx, "Mirrored transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)
	return nil
}

func (w *MirrorWorker) handleDeleted(ctx context.Context, msg *amqp.ChangeMessage) error {
	err := w.mirror.DeleteTransaction(ctx, msg.ID)
	switch {
	case errors.Is(err, sheets.ErrRowNotFound):
		slog.WarnContext(ctx, "Deleted transaction was not mirrored", "id", msg.ID)
		mirrorOps.WithLabelValues("delete", "skipped").Inc()
		return nil
	case err != nil:
		mirrorOps.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("delete from mirror: %w", err)
	}
	mirrorOps.WithLabelValues("delete", "ok").Inc()
	slog.InfoContext(ctx, "Removed mirrored transaction", "id", msg.ID)
	return nil
}

func (w *MirrorWorker) lookup(ctx context.Context, id string) (core.Transaction, error) {
	if w.source == nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	txs, err := w.source.ListTransactions(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list transactions: %w", err)
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

// Reconcile appends every stored transaction the mirror does not have yet.
// It recovers from messages lost while the worker was down.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	if w.source == nil {
		return nil
	}
	txs, err := w.source.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions for reconcile: %w", err)
	}
	var failed int
	for _, t := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.mirror.AppendTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during reconcile", "id", t.ID, "error", err)
			failed++
		}
	}
	slog.InfoContext(ctx, "Reconcile completed",
		"total", len(txs),
		"errors", failed)
	if failed > 0 {
		return fmt.Errorf("reconcile: %d of %d transactions failed", failed, len(txs))
	}
	return nil
}
