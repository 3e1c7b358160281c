package domain

import "github.com/google/uuid"

// CreditOperation — параметры одной леджерной операции.
// RelatedPurchaseID заполняется до списания: идентификатор покупки
// генерируется заранее, поэтому запись аудита создаётся сразу полной
// и остаётся неизменяемой.
type CreditOperation struct {
	Type              CreditTransactionType
	Amount            Money
	Reason            string
	RelatedPurchaseID string
	Metadata          map[string]interface{}
	CreatedBy         string
}

// ExecuteCreditOperation — единственная точка, через которую проходит
// каждая мутация леджера. Применяет операцию к балансу in-place,
// снимает balanceBefore/balanceAfter и создаёт соответствующую
// CreditTransaction в той же логической операции. Это гарантирует,
// что у каждой зафиксированной мутации баланса есть ровно одна
// запись аудита.
func ExecuteCreditOperation(balance *CreditBalance, op CreditOperation) (CreditTransaction, error) {
	balanceBefore := balance.CurrentBalance

	switch op.Type {
	case CreditTransactionGrant, CreditTransactionRefund:
		balance.Credit(op.Amount)
	case CreditTransactionDeduct:
		if err := balance.Debit(op.Amount); err != nil {
			return CreditTransaction{}, err
		}
	default:
		return CreditTransaction{}, ErrUnknownTransactionType
	}

	return NewCreditTransaction(CreditTransactionParams{
		ID:                uuid.NewString(),
		CustomerID:        balance.CustomerID,
		Type:              op.Type,
		Amount:            op.Amount,
		BalanceBefore:     balanceBefore,
		BalanceAfter:      balance.CurrentBalance,
		Reason:            op.Reason,
		RelatedPurchaseID: op.RelatedPurchaseID,
		Metadata:          op.Metadata,
		CreatedBy:         op.CreatedBy,
	})
}

// CanAffordPurchase проверяет, хватает ли баланса на сумму покупки.
func CanAffordPurchase(balance *CreditBalance, totalAmount Money) bool {
	return balance.HasSufficientBalance(totalAmount)
}

// CreditUsagePercentage считает, какой процент баланса займёт сумма.
func CreditUsagePercentage(balance *CreditBalance, amount Money) float64 {
	if balance.CurrentBalance.IsZero() {
		return 0
	}
	return amount.Float64() / balance.CurrentBalance.Float64() * 100
}
