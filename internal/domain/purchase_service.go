package domain

import "fmt"

// DefaultApprovalThreshold — порог суммы, выше которого покупка требует
// ручного одобрения. Политика реализована, но сагой пока не вызывается.
var DefaultApprovalThreshold = mustMoney("1000")

// CanBeRefunded проверяет, допускает ли покупка возврат,
// и возвращает причину отказа для пользовательского ответа.
func CanBeRefunded(purchase *Purchase) (bool, string) {
	switch purchase.Status {
	case PurchaseStatusPending:
		return false, "purchase is still pending"
	case PurchaseStatusCancelled:
		return false, "purchase was cancelled"
	case PurchaseStatusFullyRefunded:
		return false, "purchase is already fully refunded"
	}
	if purchase.RemainingAmount().IsZero() {
		return false, "no remaining amount to refund"
	}
	return true, ""
}

// ValidateRefundAmount проверяет сумму возврата против остатка.
func ValidateRefundAmount(purchase *Purchase, amount Money) (bool, string) {
	if amount.IsZero() {
		return false, "refund amount must be greater than zero"
	}
	remaining := purchase.RemainingAmount()
	if amount.GreaterThan(remaining) {
		return false, fmt.Sprintf("refund amount (%s) exceeds remaining amount (%s)", amount, remaining)
	}
	return true, ""
}

// RefundPercentage считает долю возврата от полной суммы покупки.
func RefundPercentage(purchase *Purchase, amount Money) float64 {
	if purchase.TotalAmount.IsZero() {
		return 0
	}
	return amount.Float64() / purchase.TotalAmount.Float64() * 100
}

// IsFullRefund сообщает, обнулит ли возврат остаток по покупке.
func IsFullRefund(purchase *Purchase, amount Money) bool {
	return amount.Equal(purchase.RemainingAmount())
}

// RequiresApproval — покупки дороже порога требуют одобрения.
func RequiresApproval(totalAmount, threshold Money) bool {
	return totalAmount.GreaterThan(threshold)
}
