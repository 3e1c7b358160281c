package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

func integrationCustomerID(t *testing.T) domain.CustomerID {
	t.Helper()
	id, err := domain.NewCustomerID(uuid.NewString())
	if err != nil {
		t.Fatalf("new customer id: %v", err)
	}
	return id
}

func integrationMoney(t *testing.T, value string) domain.Money {
	t.Helper()
	m, err := domain.MoneyFromString(value)
	if err != nil {
		t.Fatalf("money %q: %v", value, err)
	}
	return m
}

func TestIntegrationBalanceLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID := integrationCustomerID(t)

	balance, err := store.Balances().GetOrCreate(customerID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !balance.CurrentBalance.IsZero() || balance.Version != 0 {
		t.Fatalf("fresh balance must be zero at version 0: %+v", balance)
	}

	balance.Credit(integrationMoney(t, "100"))
	if err := store.Balances().Update(balance); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, err := store.Balances().FindByCustomerID(customerID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.CurrentBalance.String() != "100.00" {
		t.Fatalf("expected 100.00, got %s", stored.CurrentBalance)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1, got %d", stored.Version)
	}
}

func TestIntegrationOptimisticLockConflict(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID := integrationCustomerID(t)

	balance, err := store.Balances().GetOrCreate(customerID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	first := balance
	second := balance

	first.Credit(integrationMoney(t, "100"))
	if err := store.Balances().Update(first); err != nil {
		t.Fatalf("first update: %v", err)
	}

	second.Credit(integrationMoney(t, "50"))
	err = store.Balances().Update(second)
	if !domain.IsConcurrencyError(err) {
		t.Fatalf("expected ConcurrencyError, got %v", err)
	}
}

func TestIntegrationWithinTxRollback(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID := integrationCustomerID(t)

	balance, err := store.Balances().GetOrCreate(customerID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	balance.Credit(integrationMoney(t, "100"))
	if err := store.Balances().Update(balance); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	boom := errors.New("boom")
	err = store.WithinTx(context.Background(), func(tx domain.Tx) error {
		inner, err := tx.Balances().FindByCustomerID(customerID)
		if err != nil {
			return err
		}
		if err := inner.Debit(integrationMoney(t, "60")); err != nil {
			return err
		}
		if err := tx.Balances().Update(inner); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	current, err := store.Balances().FindByCustomerID(customerID)
	if err != nil {
		t.Fatalf("find balance: %v", err)
	}
	if current.CurrentBalance.String() != "100.00" {
		t.Fatalf("expected 100.00 after rollback, got %s", current.CurrentBalance)
	}
}

func TestIntegrationLedgerHistory(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID := integrationCustomerID(t)

	balance, err := store.Balances().GetOrCreate(customerID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	purchaseID := uuid.NewString()
	grant, err := domain.ExecuteCreditOperation(&balance, domain.CreditOperation{
		Type:   domain.CreditTransactionGrant,
		Amount: integrationMoney(t, "100"),
		Reason: "welcome grant",
		Metadata: map[string]interface{}{
			"source": "integration-test",
		},
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	deduct, err := domain.ExecuteCreditOperation(&balance, domain.CreditOperation{
		Type:              domain.CreditTransactionDeduct,
		Amount:            integrationMoney(t, "40"),
		Reason:            "purchase",
		RelatedPurchaseID: purchaseID,
	})
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}

	for _, transaction := range []domain.CreditTransaction{grant, deduct} {
		if err := store.Transactions().Append(transaction); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	history, total, err := store.Transactions().History(customerID, 10, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 2 || len(history) != 2 {
		t.Fatalf("expected 2 transactions, got total=%d len=%d", total, len(history))
	}

	var foundDeduct bool
	for _, transaction := range history {
		if transaction.Type != domain.CreditTransactionDeduct {
			continue
		}
		foundDeduct = true
		if transaction.RelatedPurchaseID != purchaseID {
			t.Fatalf("expected related purchase %s, got %s", purchaseID, transaction.RelatedPurchaseID)
		}
		if transaction.BalanceBefore.String() != "100.00" || transaction.BalanceAfter.String() != "60.00" {
			t.Fatalf("unexpected deduct snapshot: before=%s after=%s",
				transaction.BalanceBefore, transaction.BalanceAfter)
		}
	}
	if !foundDeduct {
		t.Fatal("deduct transaction not found in history")
	}
}

func TestIntegrationPurchaseRoundTrip(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID := integrationCustomerID(t)

	productID, err := domain.NewProductID(uuid.NewString())
	if err != nil {
		t.Fatalf("new product id: %v", err)
	}

	purchase, err := domain.NewPurchase(domain.PurchaseParams{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   3,
		UnitPrice:  integrationMoney(t, "19.99"),
		ProductSnapshot: &domain.ProductSnapshot{
			ID:    productID.String(),
			SKU:   "SKU-1",
			Name:  "Widget",
			Price: integrationMoney(t, "19.99"),
		},
		CustomerSnapshot: &domain.CustomerSnapshot{
			ID:    customerID.String(),
			Name:  "Test Customer",
			Email: "customer@example.com",
		},
	})
	if err != nil {
		t.Fatalf("new purchase: %v", err)
	}

	if err := store.Purchases().Create(purchase); err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	if err := purchase.Complete("shp_123"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.Purchases().Update(purchase); err != nil {
		t.Fatalf("update purchase: %v", err)
	}

	stored, err := store.Purchases().Get(purchase.ID)
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if stored.Status != domain.PurchaseStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", stored.Status)
	}
	if stored.TotalAmount.String() != "59.97" {
		t.Fatalf("expected 59.97, got %s", stored.TotalAmount)
	}
	if stored.ShipmentID != "shp_123" {
		t.Fatalf("expected shipment id shp_123, got %s", stored.ShipmentID)
	}
	if stored.ProductSnapshot == nil || stored.ProductSnapshot.SKU != "SKU-1" {
		t.Fatalf("product snapshot not restored: %+v", stored.ProductSnapshot)
	}

	page, total, err := store.Purchases().List(domain.PurchaseFilter{
		CustomerID: customerID.String(),
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if total != 1 || len(page) != 1 {
		t.Fatalf("expected 1 purchase, got total=%d len=%d", total, len(page))
	}
}

func TestIntegrationPromoCodeUniqueness(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	now := time.Now().UTC()
	promo, err := domain.NewPromoCode(domain.PromoCodeParams{
		ID:         uuid.NewString(),
		Code:       "SPRING25",
		Type:       domain.PromoCodePercentage,
		Value:      decimal.NewFromInt(25),
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("new promo: %v", err)
	}

	if err := store.PromoCodes().Create(promo); err != nil {
		t.Fatalf("create promo: %v", err)
	}

	duplicate := promo
	duplicate.ID = uuid.NewString()
	duplicate.Code = "spring25"
	err = store.PromoCodes().Create(duplicate)
	if !domain.IsValidationError(err) {
		t.Fatalf("expected ValidationError for duplicate code, got %v", err)
	}

	found, err := store.PromoCodes().FindByCode("spring25")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if found.ID != promo.ID {
		t.Fatalf("expected promo %s, got %s", promo.ID, found.ID)
	}
}
