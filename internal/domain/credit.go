package domain

import "time"

// CreditTransactionType описывает тип леджерной операции.
type CreditTransactionType string

const (
	// CreditTransactionGrant — начисление кредита клиенту.
	CreditTransactionGrant CreditTransactionType = "GRANT"
	// CreditTransactionDeduct — списание кредита (оплата покупки).
	CreditTransactionDeduct CreditTransactionType = "DEDUCT"
	// CreditTransactionRefund — возврат средств по покупке.
	CreditTransactionRefund CreditTransactionType = "REFUND"
)

// CreditBalance — баланс клиента с optimistic locking.
// Инвариант: CurrentBalance >= 0 в любой момент времени.
// Version растёт на 1 при каждой успешной мутации и служит
// токеном конкурентного доступа при записи в хранилище.
type CreditBalance struct {
	ID             string
	CustomerID     CustomerID
	CurrentBalance Money
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewCreditBalance создаёт баланс с нулевой суммой.
// Балансы создаются лениво при первом обращении и никогда не удаляются.
func NewCreditBalance(id string, customerID CustomerID) CreditBalance {
	now := time.Now().UTC()
	return CreditBalance{
		ID:             id,
		CustomerID:     customerID,
		CurrentBalance: ZeroMoney(),
		Version:        0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Credit увеличивает баланс и инкрементирует версию.
func (b *CreditBalance) Credit(amount Money) {
	b.CurrentBalance = b.CurrentBalance.Add(amount)
	b.Version++
	b.UpdatedAt = time.Now().UTC()
}

// Debit уменьшает баланс или возвращает ErrInsufficientBalance.
// При отказе ни баланс, ни версия не меняются.
func (b *CreditBalance) Debit(amount Money) error {
	if b.CurrentBalance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	result, err := b.CurrentBalance.Subtract(amount)
	if err != nil {
		return err
	}
	b.CurrentBalance = result
	b.Version++
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// HasSufficientBalance проверяет, достаточно ли средств на списание.
func (b *CreditBalance) HasSufficientBalance(amount Money) bool {
	return b.CurrentBalance.GreaterOrEqual(amount)
}

// CreditTransaction — неизменяемая запись аудита по мутации баланса.
// Леджер append-only и является системой записи для истории баланса:
// BalanceAfter = BalanceBefore + Amount для GRANT/REFUND,
// BalanceAfter = BalanceBefore - Amount для DEDUCT.
type CreditTransaction struct {
	ID                string
	CustomerID        CustomerID
	Type              CreditTransactionType
	Amount            Money
	BalanceBefore     Money
	BalanceAfter      Money
	Reason            string
	RelatedPurchaseID string
	Metadata          map[string]interface{}
	CreatedBy         string
	CreatedAt         time.Time
}

// CreditTransactionParams — параметры новой леджерной записи.
type CreditTransactionParams struct {
	ID                string
	CustomerID        CustomerID
	Type              CreditTransactionType
	Amount            Money
	BalanceBefore     Money
	BalanceAfter      Money
	Reason            string
	RelatedPurchaseID string
	Metadata          map[string]interface{}
	CreatedBy         string
}

// NewCreditTransaction создаёт запись аудита; причина обязательна.
func NewCreditTransaction(params CreditTransactionParams) (CreditTransaction, error) {
	if params.Reason == "" {
		return CreditTransaction{}, ErrTransactionReasonRequired
	}
	return CreditTransaction{
		ID:                params.ID,
		CustomerID:        params.CustomerID,
		Type:              params.Type,
		Amount:            params.Amount,
		BalanceBefore:     params.BalanceBefore,
		BalanceAfter:      params.BalanceAfter,
		Reason:            params.Reason,
		RelatedPurchaseID: params.RelatedPurchaseID,
		Metadata:          params.Metadata,
		CreatedBy:         params.CreatedBy,
		CreatedAt:         time.Now().UTC(),
	}, nil
}
