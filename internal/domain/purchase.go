package domain

import "time"

// PurchaseStatus описывает жизненный цикл покупки.
type PurchaseStatus string

const (
	// PurchaseStatusPending — покупка создана, доставка ещё не подтверждена.
	PurchaseStatusPending PurchaseStatus = "PENDING"
	// PurchaseStatusCompleted — доставка создана, покупка завершена.
	PurchaseStatusCompleted PurchaseStatus = "COMPLETED"
	// PurchaseStatusPartiallyRefunded — возвращена часть суммы.
	PurchaseStatusPartiallyRefunded PurchaseStatus = "PARTIALLY_REFUNDED"
	// PurchaseStatusFullyRefunded — возвращена вся сумма; терминальный статус.
	PurchaseStatusFullyRefunded PurchaseStatus = "FULLY_REFUNDED"
	// PurchaseStatusCancelled — покупка отменена до завершения; терминальный статус.
	PurchaseStatusCancelled PurchaseStatus = "CANCELLED"
)

// Purchase — покупка товара за кредитный баланс.
// Разрешённые переходы: PENDING -> {COMPLETED, CANCELLED};
// {COMPLETED, PARTIALLY_REFUNDED} -> {PARTIALLY_REFUNDED, FULLY_REFUNDED}.
// Других переходов нет.
type Purchase struct {
	ID             string
	CustomerID     CustomerID
	ProductID      ProductID
	Quantity       int
	UnitPrice      Money
	TotalAmount    Money
	RefundedAmount Money
	Status         PurchaseStatus
	ShipmentID     string
	// Снимки внешних сущностей на момент покупки; никогда не обновляются.
	ProductSnapshot  *ProductSnapshot
	CustomerSnapshot *CustomerSnapshot
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PurchaseParams — параметры создания покупки. ID генерирует вызывающая
// сторона до списания средств, чтобы связать транзакцию леджера с покупкой.
type PurchaseParams struct {
	ID               string
	CustomerID       CustomerID
	ProductID        ProductID
	Quantity         int
	UnitPrice        Money
	ProductSnapshot  *ProductSnapshot
	CustomerSnapshot *CustomerSnapshot
	CreatedBy        string
}

// NewPurchase создаёт покупку в статусе PENDING.
func NewPurchase(params PurchaseParams) (Purchase, error) {
	if params.Quantity <= 0 {
		return Purchase{}, ErrQuantityInvalid
	}
	now := time.Now().UTC()
	return Purchase{
		ID:               params.ID,
		CustomerID:       params.CustomerID,
		ProductID:        params.ProductID,
		Quantity:         params.Quantity,
		UnitPrice:        params.UnitPrice,
		TotalAmount:      params.UnitPrice.MultiplyInt(params.Quantity),
		RefundedAmount:   ZeroMoney(),
		Status:           PurchaseStatusPending,
		ProductSnapshot:  params.ProductSnapshot,
		CustomerSnapshot: params.CustomerSnapshot,
		CreatedBy:        params.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Complete переводит покупку PENDING -> COMPLETED с идентификатором доставки.
func (p *Purchase) Complete(shipmentID string) error {
	if p.Status != PurchaseStatusPending {
		return ErrPurchaseNotPending
	}
	p.ShipmentID = shipmentID
	p.Status = PurchaseStatusCompleted
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel переводит покупку PENDING -> CANCELLED.
func (p *Purchase) Cancel() error {
	if p.Status != PurchaseStatusPending {
		return ErrPurchaseNotCancellable
	}
	p.Status = PurchaseStatusCancelled
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Refund увеличивает возвращённую сумму и пересчитывает статус.
// Инвариант: RefundedAmount никогда не превышает TotalAmount.
func (p *Purchase) Refund(amount Money) error {
	if p.Status != PurchaseStatusCompleted && p.Status != PurchaseStatusPartiallyRefunded {
		return ErrPurchaseNotRefundable
	}
	if amount.GreaterThan(p.RemainingAmount()) {
		return ErrRefundExceedsRemaining
	}

	p.RefundedAmount = p.RefundedAmount.Add(amount)
	if p.RefundedAmount.Equal(p.TotalAmount) {
		p.Status = PurchaseStatusFullyRefunded
	} else {
		p.Status = PurchaseStatusPartiallyRefunded
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RemainingAmount возвращает невозвращённый остаток по покупке.
func (p *Purchase) RemainingAmount() Money {
	remaining, err := p.TotalAmount.Subtract(p.RefundedAmount)
	if err != nil {
		// RefundedAmount <= TotalAmount по инварианту Refund.
		return ZeroMoney()
	}
	return remaining
}

// IsRefundable сообщает, можно ли вернуть хоть какую-то сумму.
func (p *Purchase) IsRefundable() bool {
	if p.Status != PurchaseStatusCompleted && p.Status != PurchaseStatusPartiallyRefunded {
		return false
	}
	return !p.RefundedAmount.Equal(p.TotalAmount)
}

// IsFullyRefunded сообщает, возвращена ли вся сумма.
func (p *Purchase) IsFullyRefunded() bool {
	return p.Status == PurchaseStatusFullyRefunded
}

// Refund — неизменяемая запись об одном возврате по покупке.
// Сумма всех Refund по покупке равна её RefundedAmount.
type Refund struct {
	ID         string
	PurchaseID string
	Amount     Money
	Reason     string
	RefundedBy string
	CreatedAt  time.Time
}

// NewRefund создаёт запись возврата; сумма должна быть положительной.
func NewRefund(id, purchaseID string, amount Money, reason, refundedBy string) (Refund, error) {
	if amount.IsZero() {
		return Refund{}, ErrRefundAmountInvalid
	}
	return Refund{
		ID:         id,
		PurchaseID: purchaseID,
		Amount:     amount,
		Reason:     reason,
		RefundedBy: refundedBy,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
