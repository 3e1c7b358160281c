package domain_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

func makeCustomerID(t *testing.T) domain.CustomerID {
	t.Helper()
	id, err := domain.NewCustomerID(uuid.NewString())
	if err != nil {
		t.Fatalf("new customer id: %v", err)
	}
	return id
}

func makeBalance(t *testing.T, amount string) domain.CreditBalance {
	t.Helper()
	balance := domain.NewCreditBalance(uuid.NewString(), makeCustomerID(t))
	if amount != "" && amount != "0" {
		balance.Credit(mustMoney(t, amount))
	}
	return balance
}

func TestCustomerIDValidation(t *testing.T) {
	if _, err := domain.NewCustomerID(""); err != domain.ErrCustomerIDRequired {
		t.Fatalf("expected ErrCustomerIDRequired, got %v", err)
	}
	if _, err := domain.NewCustomerID("not-a-uuid"); err != domain.ErrCustomerIDInvalid {
		t.Fatalf("expected ErrCustomerIDInvalid, got %v", err)
	}

	raw := uuid.NewString()
	a, err := domain.NewCustomerID(raw)
	if err != nil {
		t.Fatalf("new customer id: %v", err)
	}
	b, _ := domain.NewCustomerID(raw)
	if a != b {
		t.Fatal("customer ids with the same value must be equal")
	}
}

func TestCreditBalanceCreditIncrementsVersion(t *testing.T) {
	balance := makeBalance(t, "0")
	if balance.Version != 0 {
		t.Fatalf("fresh balance must have version 0, got %d", balance.Version)
	}

	balance.Credit(mustMoney(t, "100"))

	if balance.CurrentBalance.String() != "100.00" {
		t.Fatalf("expected 100.00, got %s", balance.CurrentBalance)
	}
	if balance.Version != 1 {
		t.Fatalf("expected version 1, got %d", balance.Version)
	}
}

func TestCreditBalanceDebit(t *testing.T) {
	balance := makeBalance(t, "100")
	versionBefore := balance.Version

	if err := balance.Debit(mustMoney(t, "60")); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance.CurrentBalance.String() != "40.00" {
		t.Fatalf("expected 40.00, got %s", balance.CurrentBalance)
	}
	if balance.Version != versionBefore+1 {
		t.Fatalf("expected version bump, got %d", balance.Version)
	}
}

func TestCreditBalanceDebitInsufficientDoesNotMutate(t *testing.T) {
	balance := makeBalance(t, "50")
	versionBefore := balance.Version

	err := balance.Debit(mustMoney(t, "50.01"))
	if err != domain.ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	// Отказ не меняет ни баланс, ни версию.
	if balance.CurrentBalance.String() != "50.00" {
		t.Fatalf("balance mutated on failed debit: %s", balance.CurrentBalance)
	}
	if balance.Version != versionBefore {
		t.Fatalf("version mutated on failed debit: %d", balance.Version)
	}
}

func TestExecuteCreditOperationInvariants(t *testing.T) {
	cases := []struct {
		name    string
		opType  domain.CreditTransactionType
		start   string
		amount  string
		wantEnd string
	}{
		{"grant", domain.CreditTransactionGrant, "0", "100", "100.00"},
		{"deduct", domain.CreditTransactionDeduct, "100", "60", "40.00"},
		{"refund", domain.CreditTransactionRefund, "40", "20", "60.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			balance := makeBalance(t, tc.start)

			tx, err := domain.ExecuteCreditOperation(&balance, domain.CreditOperation{
				Type:   tc.opType,
				Amount: mustMoney(t, tc.amount),
				Reason: "test operation",
			})
			if err != nil {
				t.Fatalf("execute operation: %v", err)
			}

			if balance.CurrentBalance.String() != tc.wantEnd {
				t.Fatalf("expected balance %s, got %s", tc.wantEnd, balance.CurrentBalance)
			}
			if !tx.BalanceAfter.Equal(balance.CurrentBalance) {
				t.Fatalf("transaction after %s != balance %s", tx.BalanceAfter, balance.CurrentBalance)
			}

			// balanceAfter = balanceBefore +/- amount.
			var expected domain.Money
			if tc.opType == domain.CreditTransactionDeduct {
				expected, _ = tx.BalanceBefore.Subtract(tx.Amount)
			} else {
				expected = tx.BalanceBefore.Add(tx.Amount)
			}
			if !tx.BalanceAfter.Equal(expected) {
				t.Fatalf("ledger invariant violated: before=%s amount=%s after=%s",
					tx.BalanceBefore, tx.Amount, tx.BalanceAfter)
			}
			if tx.ID == "" {
				t.Fatal("transaction id must be generated")
			}
		})
	}
}

func TestExecuteCreditOperationRequiresReason(t *testing.T) {
	balance := makeBalance(t, "10")
	_, err := domain.ExecuteCreditOperation(&balance, domain.CreditOperation{
		Type:   domain.CreditTransactionGrant,
		Amount: mustMoney(t, "1"),
	})
	if err != domain.ErrTransactionReasonRequired {
		t.Fatalf("expected ErrTransactionReasonRequired, got %v", err)
	}
}

func TestExecuteCreditOperationInsufficient(t *testing.T) {
	balance := makeBalance(t, "10")
	_, err := domain.ExecuteCreditOperation(&balance, domain.CreditOperation{
		Type:   domain.CreditTransactionDeduct,
		Amount: mustMoney(t, "11"),
		Reason: "too much",
	})
	if err != domain.ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if balance.CurrentBalance.String() != "10.00" {
		t.Fatalf("balance mutated on failed operation: %s", balance.CurrentBalance)
	}
}

func TestCanAffordPurchase(t *testing.T) {
	balance := makeBalance(t, "100")
	if !domain.CanAffordPurchase(&balance, mustMoney(t, "100")) {
		t.Fatal("exact balance must be affordable")
	}
	if domain.CanAffordPurchase(&balance, mustMoney(t, "100.01")) {
		t.Fatal("amount above balance must not be affordable")
	}
}

func TestCreditUsagePercentage(t *testing.T) {
	balance := makeBalance(t, "200")
	got := domain.CreditUsagePercentage(&balance, mustMoney(t, "50"))
	if got != 25 {
		t.Fatalf("expected 25%%, got %v", got)
	}

	empty := makeBalance(t, "0")
	if domain.CreditUsagePercentage(&empty, mustMoney(t, "50")) != 0 {
		t.Fatal("zero balance must report 0%")
	}
}
