package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Op names the ledger change carried by an Event.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpClear  Op = "clear"
	OpBudget Op = "budget"
	OpIcon   Op = "icon"
)

func (o Op) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete, OpClear, OpBudget, OpIcon:
		return true
	default:
		return false
	}
}

// Event is a lightweight change notification. Consumers reload state from
// the shared store rather than trusting the payload.
type Event struct {
	Op            Op        `json:"op"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Category      string    `json:"category,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewEvent(op Op, transactionID, category string) Event {
	return Event{
		Op:            op,
		TransactionID: transactionID,
		Category:      category,
		Timestamp:     time.Now().UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and validates a message body.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if !e.Op.Valid() {
		return Event{}, fmt.Errorf("unknown event op %q", e.Op)
	}
	return e, nil
}
