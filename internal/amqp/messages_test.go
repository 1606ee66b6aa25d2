package amqp

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(OpUpdate, "tx-9", "Food")
	if e.Op != OpUpdate || e.TransactionID != "tx-9" || e.Category != "Food" {
		t.Fatalf("unexpected event %+v", e)
	}
	if time.Since(e.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}
}

func TestEvent_JSON(t *testing.T) {
	e := Event{Op: OpBudget, Category: "Rent", Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	want := `{"op":"budget","category":"Rent","timestamp":"2025-01-01T12:00:00Z"}`
	if string(data) != want {
		t.Fatalf("got %s want %s", data, want)
	}
	parsed, err := EventFromJSON(data)
	if err != nil {
		t.Fatalf("EventFromJSON: %v", err)
	}
	if parsed != e {
		t.Fatalf("got %+v want %+v", parsed, e)
	}
}

func TestEventFromJSON_Invalid(t *testing.T) {
	cases := []string{
		`{"op": 1}`,
		`{"op": "rename"}`,
		`not json`,
	}
	for _, c := range cases {
		if _, err := EventFromJSON([]byte(c)); err == nil {
			t.Errorf("expected error for %s", c)
		}
	}
}
