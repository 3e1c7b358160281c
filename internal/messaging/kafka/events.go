package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Purchase события
	EventTypePurchaseCompleted EventType = "purchase.completed"
	EventTypePurchaseFailed    EventType = "purchase.failed"
	EventTypePurchaseRefunded  EventType = "purchase.refunded"

	// Credit события
	EventTypeCreditGranted  EventType = "credit.granted"
	EventTypeCreditDeducted EventType = "credit.deducted"
	EventTypeCreditRefunded EventType = "credit.refunded"
)

// Topics для Kafka
const (
	TopicPurchaseEvents = "credits.purchase.events"
	TopicCreditEvents   = "credits.credit.events"
)

// PurchaseEvent представляет событие жизненного цикла покупки
type PurchaseEvent struct {
	EventType  EventType              `json:"event_type"`
	PurchaseID string                 `json:"purchase_id"`
	CustomerID string                 `json:"customer_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// CreditEvent представляет событие кредитного леджера
type CreditEvent struct {
	EventType  EventType              `json:"event_type"`
	CustomerID string                 `json:"customer_id"`
	Amount     string                 `json:"amount"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewPurchaseEvent создает новое событие покупки
func NewPurchaseEvent(eventType EventType, purchaseID, customerID string, metadata map[string]interface{}) *PurchaseEvent {
	return &PurchaseEvent{
		EventType:  eventType,
		PurchaseID: purchaseID,
		CustomerID: customerID,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}

// NewCreditEvent создает новое событие леджера
func NewCreditEvent(eventType EventType, customerID, amount string, metadata map[string]interface{}) *CreditEvent {
	return &CreditEvent{
		EventType:  eventType,
		CustomerID: customerID,
		Amount:     amount,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}
