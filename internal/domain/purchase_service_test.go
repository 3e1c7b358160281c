package domain_test

import (
	"strings"
	"testing"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

func TestCanBeRefundedReasons(t *testing.T) {
	cases := []struct {
		name       string
		setup      func(t *testing.T) domain.Purchase
		wantOK     bool
		wantReason string
	}{
		{
			name:       "pending",
			setup:      func(t *testing.T) domain.Purchase { return makePurchase(t, 1, "10") },
			wantReason: "purchase is still pending",
		},
		{
			name: "cancelled",
			setup: func(t *testing.T) domain.Purchase {
				p := makePurchase(t, 1, "10")
				if err := p.Cancel(); err != nil {
					t.Fatalf("cancel: %v", err)
				}
				return p
			},
			wantReason: "purchase was cancelled",
		},
		{
			name: "fully refunded",
			setup: func(t *testing.T) domain.Purchase {
				p := completedPurchase(t, 1, "10")
				if err := p.Refund(mustMoney(t, "10")); err != nil {
					t.Fatalf("refund: %v", err)
				}
				return p
			},
			wantReason: "purchase is already fully refunded",
		},
		{
			name:   "completed",
			setup:  func(t *testing.T) domain.Purchase { return completedPurchase(t, 1, "10") },
			wantOK: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			purchase := tc.setup(t)
			ok, reason := domain.CanBeRefunded(&purchase)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v (reason %q)", tc.wantOK, ok, reason)
			}
			if reason != tc.wantReason {
				t.Fatalf("expected reason %q, got %q", tc.wantReason, reason)
			}
		})
	}
}

func TestValidateRefundAmount(t *testing.T) {
	purchase := completedPurchase(t, 2, "30") // total 60.00

	if ok, _ := domain.ValidateRefundAmount(&purchase, mustMoney(t, "60")); !ok {
		t.Fatal("full amount must be a valid refund")
	}

	ok, reason := domain.ValidateRefundAmount(&purchase, domain.ZeroMoney())
	if ok || reason != "refund amount must be greater than zero" {
		t.Fatalf("zero amount: got ok=%v reason=%q", ok, reason)
	}

	ok, reason = domain.ValidateRefundAmount(&purchase, mustMoney(t, "60.01"))
	if ok {
		t.Fatal("amount above remaining must be rejected")
	}
	// Сообщение содержит обе суммы.
	if !strings.Contains(reason, "60.01") || !strings.Contains(reason, "60.00") {
		t.Fatalf("reason must include both amounts, got %q", reason)
	}
}

func TestRefundPercentageAndFullRefund(t *testing.T) {
	purchase := completedPurchase(t, 1, "200")

	if pct := domain.RefundPercentage(&purchase, mustMoney(t, "50")); pct != 25 {
		t.Fatalf("expected 25%%, got %v", pct)
	}

	if domain.IsFullRefund(&purchase, mustMoney(t, "100")) {
		t.Fatal("partial amount must not be a full refund")
	}
	if !domain.IsFullRefund(&purchase, mustMoney(t, "200")) {
		t.Fatal("full amount must be a full refund")
	}
}

func TestRequiresApproval(t *testing.T) {
	threshold := domain.DefaultApprovalThreshold

	if domain.RequiresApproval(mustMoney(t, "1000"), threshold) {
		t.Fatal("threshold amount itself must not require approval")
	}
	if !domain.RequiresApproval(mustMoney(t, "1000.01"), threshold) {
		t.Fatal("amount above threshold must require approval")
	}
}
