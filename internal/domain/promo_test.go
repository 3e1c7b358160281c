package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

func promoParams(t *testing.T) domain.PromoCodeParams {
	t.Helper()
	now := time.Now().UTC()
	return domain.PromoCodeParams{
		ID:         uuid.NewString(),
		Code:       "summer10",
		Type:       domain.PromoCodePercentage,
		Value:      decimal.NewFromInt(10),
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
	}
}

func makePromo(t *testing.T, mutate func(*domain.PromoCodeParams)) domain.PromoCode {
	t.Helper()
	params := promoParams(t)
	if mutate != nil {
		mutate(&params)
	}
	promo, err := domain.NewPromoCode(params)
	if err != nil {
		t.Fatalf("new promo code: %v", err)
	}
	return promo
}

func moneyPtr(m domain.Money) *domain.Money {
	return &m
}

func TestNewPromoCodeUppercasesCode(t *testing.T) {
	promo := makePromo(t, nil)
	if promo.Code != "SUMMER10" {
		t.Fatalf("expected SUMMER10, got %q", promo.Code)
	}
	if promo.Status != domain.PromoCodeStatusActive {
		t.Fatalf("new promo must be ACTIVE, got %s", promo.Status)
	}
}

func TestNewPromoCodeValidation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(p *domain.PromoCodeParams)
	}{
		{"empty code", func(p *domain.PromoCodeParams) { p.Code = "" }},
		{"short code", func(p *domain.PromoCodeParams) { p.Code = "ab" }},
		{"long code", func(p *domain.PromoCodeParams) { p.Code = strings.Repeat("A", 51) }},
		{"bad charset", func(p *domain.PromoCodeParams) { p.Code = "SAVE 10%" }},
		{"zero percentage", func(p *domain.PromoCodeParams) { p.Value = decimal.Zero }},
		{"percentage above 100", func(p *domain.PromoCodeParams) { p.Value = decimal.NewFromInt(101) }},
		{"zero fixed amount", func(p *domain.PromoCodeParams) {
			p.Type = domain.PromoCodeFixedAmount
			p.Value = decimal.Zero
		}},
		{"unknown type", func(p *domain.PromoCodeParams) {
			p.Type = domain.PromoCodeType("BOGUS")
			p.Value = decimal.NewFromInt(-500)
		}},
		{"dates out of order", func(p *domain.PromoCodeParams) {
			p.ValidFrom = p.ValidUntil.Add(time.Hour)
		}},
		{"negative max usage", func(p *domain.PromoCodeParams) { p.MaxUsageCount = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := promoParams(t)
			tc.mut(&params)
			if _, err := domain.NewPromoCode(params); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestPromoCodeIsValidWindow(t *testing.T) {
	promo := makePromo(t, nil)
	now := time.Now().UTC()

	if !promo.IsValidAt(now) {
		t.Fatal("promo inside window must be valid")
	}
	if promo.IsValidAt(promo.ValidFrom.Add(-time.Minute)) {
		t.Fatal("promo before window must be invalid")
	}
	if promo.IsValidAt(promo.ValidUntil.Add(time.Minute)) {
		t.Fatal("promo after window must be invalid")
	}

	promo.Disable()
	if promo.IsValidAt(now) {
		t.Fatal("disabled promo must be invalid")
	}
}

func TestPromoCodeValidationMessages(t *testing.T) {
	now := time.Now().UTC()

	promo := makePromo(t, nil)
	if msg := promo.ValidationMessageAt(now); msg != "" {
		t.Fatalf("valid promo must have empty message, got %q", msg)
	}

	promo.Disable()
	if msg := promo.ValidationMessageAt(now); msg != "promo code is disabled" {
		t.Fatalf("unexpected message %q", msg)
	}

	notYet := makePromo(t, func(p *domain.PromoCodeParams) {
		p.ValidFrom = now.Add(time.Hour)
		p.ValidUntil = now.Add(2 * time.Hour)
	})
	if msg := notYet.ValidationMessageAt(now); msg != "promo code is not yet valid" {
		t.Fatalf("unexpected message %q", msg)
	}

	expired := makePromo(t, nil)
	if msg := expired.ValidationMessageAt(expired.ValidUntil.Add(time.Minute)); msg != "promo code has expired" {
		t.Fatalf("unexpected message %q", msg)
	}

	limited := makePromo(t, func(p *domain.PromoCodeParams) { p.MaxUsageCount = 1 })
	limited.IncrementUsage()
	if msg := limited.ValidationMessageAt(now); msg != "promo code usage limit reached" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestPromoCodeCanApplyToProduct(t *testing.T) {
	open := makePromo(t, nil)
	if !open.CanApplyToProduct(uuid.NewString()) {
		t.Fatal("promo without allowlist must apply to any product")
	}

	allowed := uuid.NewString()
	scoped := makePromo(t, func(p *domain.PromoCodeParams) {
		p.ApplicableProductIDs = []string{allowed}
	})
	if !scoped.CanApplyToProduct(allowed) {
		t.Fatal("allowlisted product must be accepted")
	}
	if scoped.CanApplyToProduct(uuid.NewString()) {
		t.Fatal("product outside allowlist must be rejected")
	}
}

func TestPromoCodeCalculateDiscount(t *testing.T) {
	now := time.Now().UTC()

	t.Run("percentage with cap", func(t *testing.T) {
		// 10% от $200 — $20, но срезается до maxDiscountAmount=$15.
		promo := makePromo(t, func(p *domain.PromoCodeParams) {
			p.MaxDiscountAmount = moneyPtr(mustMoney(t, "15"))
		})
		discount := promo.CalculateDiscountAt(mustMoney(t, "200"), now)
		if discount.String() != "15.00" {
			t.Fatalf("expected 15.00, got %s", discount)
		}
	})

	t.Run("percentage rounded", func(t *testing.T) {
		promo := makePromo(t, func(p *domain.PromoCodeParams) {
			p.Value = decimal.NewFromFloat(12.5)
		})
		// 12.5% от 19.99 = 2.49875 -> 2.50.
		discount := promo.CalculateDiscountAt(mustMoney(t, "19.99"), now)
		if discount.String() != "2.50" {
			t.Fatalf("expected 2.50, got %s", discount)
		}
	})

	t.Run("fixed amount capped by purchase", func(t *testing.T) {
		promo := makePromo(t, func(p *domain.PromoCodeParams) {
			p.Type = domain.PromoCodeFixedAmount
			p.Value = decimal.NewFromInt(25)
		})
		discount := promo.CalculateDiscountAt(mustMoney(t, "10"), now)
		if discount.String() != "10.00" {
			t.Fatalf("discount must not exceed purchase amount, got %s", discount)
		}
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		promo := makePromo(t, func(p *domain.PromoCodeParams) {
			p.MinPurchaseAmount = moneyPtr(mustMoney(t, "50"))
		})
		discount := promo.CalculateDiscountAt(mustMoney(t, "49.99"), now)
		if !discount.IsZero() {
			t.Fatalf("expected zero discount, got %s", discount)
		}
	})

	t.Run("invalid promo", func(t *testing.T) {
		promo := makePromo(t, nil)
		promo.Disable()
		if !promo.CalculateDiscountAt(mustMoney(t, "100"), now).IsZero() {
			t.Fatal("disabled promo must produce zero discount")
		}
	})
}

func TestPromoCodeUsageLifecycle(t *testing.T) {
	promo := makePromo(t, func(p *domain.PromoCodeParams) { p.MaxUsageCount = 2 })

	promo.IncrementUsage()
	if promo.Status != domain.PromoCodeStatusActive {
		t.Fatalf("one use of two must stay ACTIVE, got %s", promo.Status)
	}

	promo.IncrementUsage()
	if promo.Status != domain.PromoCodeStatusUsedUp {
		t.Fatalf("expected USED_UP, got %s", promo.Status)
	}

	if err := promo.Activate(); err != domain.ErrPromoCodeNotActivatable {
		t.Fatalf("used up promo must not activate, got %v", err)
	}
}

func TestPromoCodeActivateDisable(t *testing.T) {
	promo := makePromo(t, nil)

	promo.Disable()
	if promo.Status != domain.PromoCodeStatusDisabled {
		t.Fatalf("expected DISABLED, got %s", promo.Status)
	}

	if err := promo.Activate(); err != nil {
		t.Fatalf("activate disabled promo: %v", err)
	}
	if promo.Status != domain.PromoCodeStatusActive {
		t.Fatalf("expected ACTIVE, got %s", promo.Status)
	}

	promo.MarkAsExpired()
	if err := promo.Activate(); err != domain.ErrPromoCodeNotActivatable {
		t.Fatalf("expired promo must not activate, got %v", err)
	}
}
