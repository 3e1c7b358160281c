package promo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// CreateParams — параметры создания промокода.
type CreateParams struct {
	Code                 string
	Type                 domain.PromoCodeType
	Value                decimal.Decimal
	MinPurchaseAmount    *domain.Money
	MaxDiscountAmount    *domain.Money
	MaxUsageCount        int
	ValidFrom            time.Time
	ValidUntil           time.Time
	ApplicableProductIDs []string
}

// ValidationResult — результат проверки промокода для покупки.
// Невалидный код — не ошибка: Valid=false и причина в Message.
type ValidationResult struct {
	Valid          bool
	Message        string
	DiscountAmount domain.Money
	FinalAmount    domain.Money
}

// Service управляет жизненным циклом промокодов. Промокоды живут
// отдельно от саги покупки и не участвуют в расчёте списаний.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис промокодов.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "promo")
	}
	return &Service{store: store, logger: logger}
}

// Create создаёт новый промокод. Дубликат кода (без учёта регистра)
// возвращает ValidationError из хранилища.
func (s *Service) Create(ctx context.Context, params CreateParams) (domain.PromoCode, error) {
	promo, err := domain.NewPromoCode(domain.PromoCodeParams{
		ID:                   uuid.NewString(),
		Code:                 params.Code,
		Type:                 params.Type,
		Value:                params.Value,
		MinPurchaseAmount:    params.MinPurchaseAmount,
		MaxDiscountAmount:    params.MaxDiscountAmount,
		MaxUsageCount:        params.MaxUsageCount,
		ValidFrom:            params.ValidFrom,
		ValidUntil:           params.ValidUntil,
		ApplicableProductIDs: params.ApplicableProductIDs,
	})
	if err != nil {
		return domain.PromoCode{}, domain.NewValidationError(err.Error(), "promoCode")
	}

	if err := s.store.PromoCodes().Create(promo); err != nil {
		return domain.PromoCode{}, err
	}

	s.logger.WithFields(log.Fields{
		"promo_id": promo.ID,
		"code":     promo.Code,
		"type":     promo.Type,
	}).Info("promo code created")
	return promo, nil
}

// Validate проверяет применимость кода к покупке и считает скидку.
// Неизвестный код и непригодный код возвращаются как Valid=false,
// а не как ошибка.
func (s *Service) Validate(ctx context.Context, code string, purchaseAmount domain.Money, productID string) (ValidationResult, error) {
	if code == "" {
		return ValidationResult{}, domain.NewValidationError("promo code is required", "code")
	}

	promo, err := s.store.PromoCodes().FindByCode(code)
	if err != nil {
		if domain.IsNotFound(err) {
			return ValidationResult{
				Valid:       false,
				Message:     "promo code not found",
				FinalAmount: purchaseAmount,
			}, nil
		}
		return ValidationResult{}, err
	}

	if message := promo.ValidationMessage(); message != "" {
		return ValidationResult{
			Valid:       false,
			Message:     message,
			FinalAmount: purchaseAmount,
		}, nil
	}
	if productID != "" && !promo.CanApplyToProduct(productID) {
		return ValidationResult{
			Valid:       false,
			Message:     "promo code is not applicable to this product",
			FinalAmount: purchaseAmount,
		}, nil
	}
	if !promo.MeetsMinimumPurchase(purchaseAmount) {
		return ValidationResult{
			Valid:       false,
			Message:     "purchase amount is below the minimum for this promo code",
			FinalAmount: purchaseAmount,
		}, nil
	}

	discount := promo.CalculateDiscount(purchaseAmount)
	final, err := purchaseAmount.Subtract(discount)
	if err != nil {
		return ValidationResult{}, err
	}
	return ValidationResult{
		Valid:          true,
		DiscountAmount: discount,
		FinalAmount:    final,
	}, nil
}

// Get возвращает промокод по id.
func (s *Service) Get(ctx context.Context, id string) (domain.PromoCode, error) {
	if id == "" {
		return domain.PromoCode{}, domain.NewValidationError("promo code id is required", "id")
	}
	return s.store.PromoCodes().Get(id)
}

// List возвращает страницу промокодов; пустой статус — без фильтра.
func (s *Service) List(ctx context.Context, status domain.PromoCodeStatus, limit, offset int) ([]domain.PromoCode, int64, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.PromoCodes().List(status, limit, offset)
}

// Disable выключает промокод.
func (s *Service) Disable(ctx context.Context, id string) (domain.PromoCode, error) {
	promo, err := s.Get(ctx, id)
	if err != nil {
		return domain.PromoCode{}, err
	}
	promo.Disable()
	if err := s.store.PromoCodes().Update(promo); err != nil {
		return domain.PromoCode{}, err
	}
	s.logger.WithField("promo_id", promo.ID).Info("promo code disabled")
	return promo, nil
}

// Activate включает выключенный промокод. Истёкшие и исчерпанные коды
// вернуть нельзя.
func (s *Service) Activate(ctx context.Context, id string) (domain.PromoCode, error) {
	promo, err := s.Get(ctx, id)
	if err != nil {
		return domain.PromoCode{}, err
	}
	if err := promo.Activate(); err != nil {
		return domain.PromoCode{}, domain.NewValidationError(err.Error(), "status")
	}
	if err := s.store.PromoCodes().Update(promo); err != nil {
		return domain.PromoCode{}, err
	}
	s.logger.WithField("promo_id", promo.ID).Info("promo code activated")
	return promo, nil
}
