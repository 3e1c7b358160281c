package memory

import (
	"sort"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// balanceRepository — in-memory реализация CreditBalanceRepository.
// store == nil означает, что репозиторий привязан к снимку транзакции.
type balanceRepository struct {
	store *Store
	st    *state
}

func (r *balanceRepository) FindByCustomerID(customerID domain.CustomerID) (domain.CreditBalance, error) {
	var found domain.CreditBalance
	err := withState(r.store, r.st, func(st *state) error {
		balance, ok := st.balances[customerID.String()]
		if !ok {
			return domain.NewNotFoundError("CreditBalance", customerID.String())
		}
		found = balance
		return nil
	})
	return found, err
}

func (r *balanceRepository) GetOrCreate(customerID domain.CustomerID) (domain.CreditBalance, error) {
	var result domain.CreditBalance
	err := withState(r.store, r.st, func(st *state) error {
		if balance, ok := st.balances[customerID.String()]; ok {
			result = balance
			return nil
		}
		// Ленивое создание нулевого баланса при первом обращении.
		result = domain.NewCreditBalance(uuid.NewString(), customerID)
		st.balances[customerID.String()] = result
		return nil
	})
	return result, err
}

func (r *balanceRepository) Create(balance domain.CreditBalance) error {
	return withState(r.store, r.st, func(st *state) error {
		if _, exists := st.balances[balance.CustomerID.String()]; exists {
			return domain.NewConcurrencyError("CreditBalance", balance.CustomerID.String())
		}
		st.balances[balance.CustomerID.String()] = balance
		return nil
	})
}

func (r *balanceRepository) Update(balance domain.CreditBalance) error {
	return withState(r.store, r.st, func(st *state) error {
		current, ok := st.balances[balance.CustomerID.String()]
		if !ok {
			return domain.NewNotFoundError("CreditBalance", balance.CustomerID.String())
		}
		// Optimistic locking: сохранённая версия должна быть ровно на
		// единицу меньше записываемой.
		if current.Version != balance.Version-1 {
			return domain.NewConcurrencyError("CreditBalance", balance.CustomerID.String())
		}
		st.balances[balance.CustomerID.String()] = balance
		return nil
	})
}

// transactionRepository — in-memory append-only леджер.
type transactionRepository struct {
	store *Store
	st    *state
}

func (r *transactionRepository) Append(transaction domain.CreditTransaction) error {
	return withState(r.store, r.st, func(st *state) error {
		st.transactions = append(st.transactions, transaction)
		return nil
	})
}

func (r *transactionRepository) History(customerID domain.CustomerID, limit, offset int) ([]domain.CreditTransaction, int64, error) {
	var page []domain.CreditTransaction
	var total int64
	err := withState(r.store, r.st, func(st *state) error {
		matched := make([]domain.CreditTransaction, 0)
		for _, tx := range st.transactions {
			if tx.CustomerID == customerID {
				matched = append(matched, tx)
			}
		}
		total = int64(len(matched))

		// От новых к старым; при равных метках сохраняем порядок вставки.
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})

		if offset >= len(matched) {
			page = []domain.CreditTransaction{}
			return nil
		}
		matched = matched[offset:]
		if limit > 0 && len(matched) > limit {
			matched = matched[:limit]
		}
		page = matched
		return nil
	})
	return page, total, err
}

var _ domain.CreditBalanceRepository = (*balanceRepository)(nil)
var _ domain.CreditTransactionRepository = (*transactionRepository)(nil)
