package services

import (
	"context"
	"errors"
	"testing"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/store"
	"saldo/internal/store/memory"
)

type recordingPublisher struct {
	msgs []*amqp.ChangeMessage
	err  error
}

func (p *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestLedgerService_CreateTransactionPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	bus := events.NewBus()
	var topics []events.Topic
	bus.Subscribe(events.TransactionsChanged, func(_ context.Context, ev events.Event) { topics = append(topics, ev.Topic) })
	bus.Subscribe(events.AccountsChanged, func(_ context.Context, ev events.Event) { topics = append(topics, ev.Topic) })

	svc := NewLedgerService(memory.New(), pub, bus)
	acc, err := svc.CreateAccount(ctx, core.Account{Name: "Bank", Type: core.AccountBank, Currency: "EUR"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	topics = nil

	tx, err := svc.CreateTransaction(ctx, core.Transaction{
		AccountID: acc.ID, Amount: core.Cents(-900), Source: core.SourceManual, Timestamp: "2025-11-02",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if len(topics) != 2 || topics[0] != events.TransactionsChanged || topics[1] != events.AccountsChanged {
		t.Fatalf("unexpected bus events: %v", topics)
	}
	last := pub.msgs[len(pub.msgs)-1]
	if last.Entity != amqp.EntityTransaction || last.Action != amqp.ActionCreated || last.Transaction == nil || last.Transaction.ID != tx.ID {
		t.Fatalf("unexpected change message: %+v", last)
	}
}

func TestLedgerService_PublishFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	svc := NewLedgerService(memory.New(), pub, nil)

	tx, err := svc.CreateTransaction(ctx, core.Transaction{Amount: core.Cents(100), Source: core.SourceManual, Timestamp: "2025-11-02"})
	if err != nil {
		t.Fatalf("publish failure leaked into create: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("publish failure leaked into delete: %v", err)
	}
	if len(pub.msgs) != 2 {
		t.Fatalf("expected two publish attempts, got %d", len(pub.msgs))
	}
}

func TestLedgerService_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewLedgerService(memory.New(), pub, nil)

	if err := svc.DeleteAccount(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, core.Transaction{Source: core.SourceManual, Timestamp: "2025-11-02"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("failed mutations must not publish")
	}
}

func TestLedgerService_NilCollaborators(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, nil)
	if _, err := svc.CreateAccount(context.Background(), core.Account{Name: "Cash", Type: core.AccountCash}); err != nil {
		t.Fatalf("create without publisher: %v", err)
	}
	if err := svc.Ready(context.Background()); err != nil {
		t.Fatalf("memory store must be ready: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
