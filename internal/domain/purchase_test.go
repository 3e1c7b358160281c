package domain_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

func makeProductID(t *testing.T) domain.ProductID {
	t.Helper()
	id, err := domain.NewProductID(uuid.NewString())
	if err != nil {
		t.Fatalf("new product id: %v", err)
	}
	return id
}

func makePurchase(t *testing.T, quantity int, unitPrice string) domain.Purchase {
	t.Helper()
	purchase, err := domain.NewPurchase(domain.PurchaseParams{
		ID:         uuid.NewString(),
		CustomerID: makeCustomerID(t),
		ProductID:  makeProductID(t),
		Quantity:   quantity,
		UnitPrice:  mustMoney(t, unitPrice),
	})
	if err != nil {
		t.Fatalf("new purchase: %v", err)
	}
	return purchase
}

func completedPurchase(t *testing.T, quantity int, unitPrice string) domain.Purchase {
	t.Helper()
	purchase := makePurchase(t, quantity, unitPrice)
	if err := purchase.Complete("shipment-1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return purchase
}

func TestNewPurchase(t *testing.T) {
	purchase := makePurchase(t, 3, "19.99")

	if purchase.Status != domain.PurchaseStatusPending {
		t.Fatalf("expected PENDING, got %s", purchase.Status)
	}
	if purchase.TotalAmount.String() != "59.97" {
		t.Fatalf("expected 59.97, got %s", purchase.TotalAmount)
	}
	if !purchase.RefundedAmount.IsZero() {
		t.Fatalf("fresh purchase must have zero refunded amount")
	}
}

func TestNewPurchaseRejectsInvalidQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		_, err := domain.NewPurchase(domain.PurchaseParams{
			ID:         uuid.NewString(),
			CustomerID: makeCustomerID(t),
			ProductID:  makeProductID(t),
			Quantity:   qty,
			UnitPrice:  mustMoney(t, "10"),
		})
		if err != domain.ErrQuantityInvalid {
			t.Fatalf("qty=%d: expected ErrQuantityInvalid, got %v", qty, err)
		}
	}
}

func TestPurchaseComplete(t *testing.T) {
	purchase := makePurchase(t, 1, "10")
	if err := purchase.Complete("shipment-42"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if purchase.Status != domain.PurchaseStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", purchase.Status)
	}
	if purchase.ShipmentID != "shipment-42" {
		t.Fatalf("shipment id not set: %q", purchase.ShipmentID)
	}

	// Повторное завершение запрещено.
	if err := purchase.Complete("shipment-43"); err != domain.ErrPurchaseNotPending {
		t.Fatalf("expected ErrPurchaseNotPending, got %v", err)
	}
}

func TestPurchaseCancel(t *testing.T) {
	purchase := makePurchase(t, 1, "10")
	if err := purchase.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if purchase.Status != domain.PurchaseStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", purchase.Status)
	}

	if err := purchase.Cancel(); err != domain.ErrPurchaseNotCancellable {
		t.Fatalf("expected ErrPurchaseNotCancellable, got %v", err)
	}
	if err := purchase.Complete("shipment-1"); err != domain.ErrPurchaseNotPending {
		t.Fatalf("cancelled purchase must not complete, got %v", err)
	}
}

func TestPurchaseRefundTransitions(t *testing.T) {
	purchase := completedPurchase(t, 2, "30") // total 60.00

	if err := purchase.Refund(mustMoney(t, "20")); err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	if purchase.Status != domain.PurchaseStatusPartiallyRefunded {
		t.Fatalf("expected PARTIALLY_REFUNDED, got %s", purchase.Status)
	}
	if purchase.RemainingAmount().String() != "40.00" {
		t.Fatalf("expected remaining 40.00, got %s", purchase.RemainingAmount())
	}

	if err := purchase.Refund(mustMoney(t, "40")); err != nil {
		t.Fatalf("final refund: %v", err)
	}
	if purchase.Status != domain.PurchaseStatusFullyRefunded {
		t.Fatalf("expected FULLY_REFUNDED, got %s", purchase.Status)
	}
	if !purchase.IsFullyRefunded() {
		t.Fatal("IsFullyRefunded must be true")
	}

	// FULLY_REFUNDED терминален.
	if err := purchase.Refund(mustMoney(t, "1")); err != domain.ErrPurchaseNotRefundable {
		t.Fatalf("expected ErrPurchaseNotRefundable, got %v", err)
	}
}

func TestPurchaseRefundGuards(t *testing.T) {
	pending := makePurchase(t, 1, "10")
	if err := pending.Refund(mustMoney(t, "1")); err != domain.ErrPurchaseNotRefundable {
		t.Fatalf("pending refund: expected ErrPurchaseNotRefundable, got %v", err)
	}

	purchase := completedPurchase(t, 1, "10")
	if err := purchase.Refund(mustMoney(t, "10.01")); err != domain.ErrRefundExceedsRemaining {
		t.Fatalf("expected ErrRefundExceedsRemaining, got %v", err)
	}
	// Неуспешный возврат не меняет состояние.
	if !purchase.RefundedAmount.IsZero() {
		t.Fatalf("refunded amount mutated: %s", purchase.RefundedAmount)
	}
}

func TestPurchaseIsRefundable(t *testing.T) {
	pending := makePurchase(t, 1, "10")
	if pending.IsRefundable() {
		t.Fatal("pending purchase must not be refundable")
	}

	purchase := completedPurchase(t, 1, "10")
	if !purchase.IsRefundable() {
		t.Fatal("completed purchase must be refundable")
	}

	if err := purchase.Refund(mustMoney(t, "10")); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if purchase.IsRefundable() {
		t.Fatal("fully refunded purchase must not be refundable")
	}
}

func TestNewRefundRejectsZeroAmount(t *testing.T) {
	_, err := domain.NewRefund(uuid.NewString(), uuid.NewString(), domain.ZeroMoney(), "", "")
	if err != domain.ErrRefundAmountInvalid {
		t.Fatalf("expected ErrRefundAmountInvalid, got %v", err)
	}
}
