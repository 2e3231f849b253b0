package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"saldo/internal/core"
)

// Entity names the collection a change touched.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityAccount     Entity = "account"
)

// Action is the kind of change.
type Action string

const (
	ActionCreated Action = "created"
	ActionDeleted Action = "deleted"
)

// ChangeMessage announces a committed mutation. Created transactions carry
// the full record so consumers need no read-back.
type ChangeMessage struct {
	Entity      Entity            `json:"entity"`
	Action      Action            `json:"action"`
	ID          string            `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewTransactionCreated(t core.Transaction) *ChangeMessage {
	return &ChangeMessage{
		Entity:      EntityTransaction,
		Action:      ActionCreated,
		ID:          t.ID,
		Transaction: &t,
		Timestamp:   time.Now().UTC(),
	}
}

func NewDeleted(entity Entity, id string) *ChangeMessage {
	return &ChangeMessage{Entity: entity, Action: ActionDeleted, ID: id, Timestamp: time.Now().UTC()}
}

func NewAccountCreated(id string) *ChangeMessage {
	return &ChangeMessage{Entity: EntityAccount, Action: ActionCreated, ID: id, Timestamp: time.Now().UTC()}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("change message without id")
	}
	switch msg.Entity {
	case EntityTransaction, EntityAccount:
	default:
		return nil, fmt.Errorf("unknown entity %q", msg.Entity)
	}
	switch msg.Action {
	case ActionCreated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
