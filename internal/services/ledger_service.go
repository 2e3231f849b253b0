package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/store"
)

var publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "saldo_change_messages_total",
	Help: "Change messages handed to the broker, by result",
}, []string{"entity", "action", "result"})

// Publisher sends change messages to the broker.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// LedgerService applies mutations to the store, then announces them on the
// in-process bus and the broker. Announcements never fail a committed
// mutation.
type LedgerService struct {
	store     store.Store
	publisher Publisher
	bus       *events.Bus
}

// NewLedgerService wires the service. publisher and bus may be nil.
func NewLedgerService(s store.Store, publisher Publisher, bus *events.Bus) *LedgerService {
	return &LedgerService{store: s, publisher: publisher, bus: bus}
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *LedgerService) AccountsSummary(ctx context.Context) (core.AccountSummary, error) {
	return s.store.AccountsSummary(ctx)
}

func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.notify(ctx, events.TransactionsChanged, events.ActionCreated, created.ID)
	if created.AccountID != "" {
		s.notify(ctx, events.AccountsChanged, events.ActionUpdated, created.AccountID)
	}
	s.publish(ctx, amqp.NewTransactionCreated(created))
	return created, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.notify(ctx, events.TransactionsChanged, events.ActionDeleted, id)
	s.notify(ctx, events.AccountsChanged, events.ActionUpdated, "")
	s.publish(ctx, amqp.NewDeleted(amqp.EntityTransaction, id))
	return nil
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	s.notify(ctx, events.AccountsChanged, events.ActionCreated, created.ID)
	s.publish(ctx, amqp.NewAccountCreated(created.ID))
	return created, nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.notify(ctx, events.AccountsChanged, events.ActionDeleted, id)
	s.publish(ctx, amqp.NewDeleted(amqp.EntityAccount, id))
	return nil
}

func (s *LedgerService) notify(ctx context.Context, topic events.Topic, action events.Action, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.Event{Topic: topic, Action: action, ID: id})
}

func (s *LedgerService) publish(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change message", "id", msg.ID)
		return
	}
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		publishedTotal.WithLabelValues(string(msg.Entity), string(msg.Action), "error").Inc()
		slog.ErrorContext(ctx, "Failed to publish change message",
			"entity", msg.Entity,
			"action", msg.Action,
			"id", msg.ID,
			"error", err)
		return
	}
	publishedTotal.WithLabelValues(string(msg.Entity), string(msg.Action), "ok").Inc()
}

// Ready reports whether the store answers. Stores without a Ping method are
// always ready.
func (s *LedgerService) Ready(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
