package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PromoCodeType описывает схему расчёта скидки.
type PromoCodeType string

const (
	// PromoCodePercentage — скидка в процентах от суммы покупки.
	PromoCodePercentage PromoCodeType = "PERCENTAGE"
	// PromoCodeFixedAmount — фиксированная сумма скидки.
	PromoCodeFixedAmount PromoCodeType = "FIXED_AMOUNT"
)

// PromoCodeStatus описывает состояние промокода.
type PromoCodeStatus string

const (
	PromoCodeStatusActive   PromoCodeStatus = "ACTIVE"
	PromoCodeStatusExpired  PromoCodeStatus = "EXPIRED"
	PromoCodeStatusDisabled PromoCodeStatus = "DISABLED"
	PromoCodeStatusUsedUp   PromoCodeStatus = "USED_UP"
)

var (
	errPromoCodeEmpty          = errors.New("promo code cannot be empty")
	errPromoCodeLength         = errors.New("promo code must be between 3 and 50 characters")
	errPromoCodeCharset        = errors.New("promo code may contain only letters, digits, hyphen and underscore")
	errPromoPercentageRange    = errors.New("percentage discount must be between 0 and 100")
	errPromoFixedAmountRange   = errors.New("fixed amount discount must be greater than 0")
	errPromoMinPurchaseRange   = errors.New("minimum purchase amount cannot be negative")
	errPromoMaxDiscountRange   = errors.New("maximum discount amount must be greater than 0")
	errPromoMaxUsageRange      = errors.New("maximum usage count must be greater than 0")
	errPromoTypeUnknown        = errors.New("promo code type must be PERCENTAGE or FIXED_AMOUNT")
	errPromoValidityOrder      = errors.New("valid from date must be before valid until date")
	promoCodeCharsetPattern    = regexp.MustCompile(`^[A-Z0-9_-]+$`)
	promoPercentageUpperBound  = decimal.NewFromInt(100)
	promoDiscountHundredthsDiv = decimal.NewFromInt(100)
)

// PromoCode — промокод со схемой скидки и окном действия.
// Код хранится в верхнем регистре; уникальность без учёта регистра
// обеспечивает хранилище. MaxUsageCount == 0 означает «без лимита».
type PromoCode struct {
	ID                   string
	Code                 string
	Type                 PromoCodeType
	Value                decimal.Decimal
	MinPurchaseAmount    *Money
	MaxDiscountAmount    *Money
	MaxUsageCount        int
	CurrentUsageCount    int
	ValidFrom            time.Time
	ValidUntil           time.Time
	Status               PromoCodeStatus
	ApplicableProductIDs []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PromoCodeParams — параметры нового промокода.
type PromoCodeParams struct {
	ID                   string
	Code                 string
	Type                 PromoCodeType
	Value                decimal.Decimal
	MinPurchaseAmount    *Money
	MaxDiscountAmount    *Money
	MaxUsageCount        int
	ValidFrom            time.Time
	ValidUntil           time.Time
	ApplicableProductIDs []string
}

// NewPromoCode создаёт активный промокод, проверяя все ограничения.
func NewPromoCode(params PromoCodeParams) (PromoCode, error) {
	now := time.Now().UTC()
	promo := PromoCode{
		ID:                   params.ID,
		Code:                 strings.ToUpper(strings.TrimSpace(params.Code)),
		Type:                 params.Type,
		Value:                params.Value,
		MinPurchaseAmount:    params.MinPurchaseAmount,
		MaxDiscountAmount:    params.MaxDiscountAmount,
		MaxUsageCount:        params.MaxUsageCount,
		CurrentUsageCount:    0,
		ValidFrom:            params.ValidFrom,
		ValidUntil:           params.ValidUntil,
		Status:               PromoCodeStatusActive,
		ApplicableProductIDs: params.ApplicableProductIDs,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := promo.Validate(); err != nil {
		return PromoCode{}, err
	}
	return promo, nil
}

// Validate проверяет инварианты конструирования промокода.
func (p *PromoCode) Validate() error {
	if p.Code == "" {
		return errPromoCodeEmpty
	}
	if len(p.Code) < 3 || len(p.Code) > 50 {
		return errPromoCodeLength
	}
	if !promoCodeCharsetPattern.MatchString(p.Code) {
		return errPromoCodeCharset
	}
	switch p.Type {
	case PromoCodePercentage:
		if !p.Value.IsPositive() || p.Value.GreaterThan(promoPercentageUpperBound) {
			return errPromoPercentageRange
		}
	case PromoCodeFixedAmount:
		if !p.Value.IsPositive() {
			return errPromoFixedAmountRange
		}
	default:
		return errPromoTypeUnknown
	}
	if p.MinPurchaseAmount != nil && p.MinPurchaseAmount.Decimal().IsNegative() {
		return errPromoMinPurchaseRange
	}
	if p.MaxDiscountAmount != nil && p.MaxDiscountAmount.IsZero() {
		return errPromoMaxDiscountRange
	}
	if p.MaxUsageCount < 0 {
		return errPromoMaxUsageRange
	}
	if !p.ValidFrom.Before(p.ValidUntil) {
		return errPromoValidityOrder
	}
	return nil
}

// IsValid проверяет применимость промокода прямо сейчас.
func (p *PromoCode) IsValid() bool {
	return p.IsValidAt(time.Now().UTC())
}

// IsValidAt проверяет статус, окно действия и лимит использований.
func (p *PromoCode) IsValidAt(now time.Time) bool {
	if p.Status != PromoCodeStatusActive {
		return false
	}
	if now.Before(p.ValidFrom) || now.After(p.ValidUntil) {
		return false
	}
	if p.MaxUsageCount > 0 && p.CurrentUsageCount >= p.MaxUsageCount {
		return false
	}
	return true
}

// ValidationMessage возвращает человекочитаемую причину непригодности
// промокода или пустую строку, если он валиден. Используется в
// пользовательских ответах в отличие от булевой проверки.
func (p *PromoCode) ValidationMessage() string {
	return p.ValidationMessageAt(time.Now().UTC())
}

// ValidationMessageAt — ValidationMessage относительно заданного момента.
func (p *PromoCode) ValidationMessageAt(now time.Time) string {
	switch p.Status {
	case PromoCodeStatusDisabled:
		return "promo code is disabled"
	case PromoCodeStatusExpired:
		return "promo code has expired"
	case PromoCodeStatusUsedUp:
		return "promo code usage limit reached"
	}
	if now.Before(p.ValidFrom) {
		return "promo code is not yet valid"
	}
	if now.After(p.ValidUntil) {
		return "promo code has expired"
	}
	if p.MaxUsageCount > 0 && p.CurrentUsageCount >= p.MaxUsageCount {
		return "promo code usage limit reached"
	}
	return ""
}

// CanApplyToProduct проверяет allowlist товаров; пустой список — без ограничений.
func (p *PromoCode) CanApplyToProduct(productID string) bool {
	if len(p.ApplicableProductIDs) == 0 {
		return true
	}
	for _, id := range p.ApplicableProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// CalculateDiscount считает скидку для суммы покупки.
// Возвращает ноль для невалидного кода или суммы ниже минимальной;
// скидка ограничена MaxDiscountAmount и самой суммой покупки,
// результат округляется до цента.
func (p *PromoCode) CalculateDiscount(purchaseAmount Money) Money {
	return p.CalculateDiscountAt(purchaseAmount, time.Now().UTC())
}

// CalculateDiscountAt — CalculateDiscount относительно заданного момента.
func (p *PromoCode) CalculateDiscountAt(purchaseAmount Money, now time.Time) Money {
	if !p.IsValidAt(now) {
		return ZeroMoney()
	}
	if p.MinPurchaseAmount != nil && purchaseAmount.LessThan(*p.MinPurchaseAmount) {
		return ZeroMoney()
	}

	var discount decimal.Decimal
	if p.Type == PromoCodePercentage {
		discount = purchaseAmount.Decimal().Mul(p.Value).Div(promoDiscountHundredthsDiv)
	} else {
		discount = p.Value
	}

	if p.MaxDiscountAmount != nil && discount.GreaterThan(p.MaxDiscountAmount.Decimal()) {
		discount = p.MaxDiscountAmount.Decimal()
	}
	if discount.GreaterThan(purchaseAmount.Decimal()) {
		discount = purchaseAmount.Decimal()
	}

	result, err := NewMoney(discount)
	if err != nil {
		return ZeroMoney()
	}
	return result
}

// IncrementUsage фиксирует применение кода; при достижении лимита
// промокод автоматически переходит в статус USED_UP.
func (p *PromoCode) IncrementUsage() {
	p.CurrentUsageCount++
	p.UpdatedAt = time.Now().UTC()
	if p.MaxUsageCount > 0 && p.CurrentUsageCount >= p.MaxUsageCount {
		p.Status = PromoCodeStatusUsedUp
	}
}

// Disable выключает промокод.
func (p *PromoCode) Disable() {
	p.Status = PromoCodeStatusDisabled
	p.UpdatedAt = time.Now().UTC()
}

// Activate включает промокод; истёкшие и исчерпанные коды вернуть нельзя.
func (p *PromoCode) Activate() error {
	if p.Status == PromoCodeStatusExpired || p.Status == PromoCodeStatusUsedUp {
		return ErrPromoCodeNotActivatable
	}
	p.Status = PromoCodeStatusActive
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkAsExpired помечает промокод истёкшим.
func (p *PromoCode) MarkAsExpired() {
	p.Status = PromoCodeStatusExpired
	p.UpdatedAt = time.Now().UTC()
}

// MeetsMinimumPurchase проверяет минимальную сумму покупки для кода.
func (p *PromoCode) MeetsMinimumPurchase(amount Money) bool {
	if p.MinPurchaseAmount == nil {
		return true
	}
	return amount.GreaterOrEqual(*p.MinPurchaseAmount)
}
