package kafka

import (
	"encoding/json"
	"testing"
)

func TestNewPurchaseEvent(t *testing.T) {
	event := NewPurchaseEvent(EventTypePurchaseCompleted, "purchase-1", "customer-1", map[string]interface{}{
		"total_amount": "59.97",
	})

	if event.EventType != EventTypePurchaseCompleted {
		t.Errorf("expected event type %s, got %s", EventTypePurchaseCompleted, event.EventType)
	}
	if event.PurchaseID != "purchase-1" {
		t.Errorf("expected purchase id purchase-1, got %s", event.PurchaseID)
	}
	if event.CustomerID != "customer-1" {
		t.Errorf("expected customer id customer-1, got %s", event.CustomerID)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if decoded["event_type"] != "purchase.completed" {
		t.Errorf("unexpected event_type field: %v", decoded["event_type"])
	}
	if decoded["purchase_id"] != "purchase-1" {
		t.Errorf("unexpected purchase_id field: %v", decoded["purchase_id"])
	}
}

func TestNewCreditEvent(t *testing.T) {
	event := NewCreditEvent(EventTypeCreditGranted, "customer-1", "100.00", nil)

	if event.EventType != EventTypeCreditGranted {
		t.Errorf("expected event type %s, got %s", EventTypeCreditGranted, event.EventType)
	}
	if event.Amount != "100.00" {
		t.Errorf("expected amount 100.00, got %s", event.Amount)
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if _, ok := decoded["metadata"]; ok {
		t.Error("nil metadata should be omitted from JSON")
	}
}
