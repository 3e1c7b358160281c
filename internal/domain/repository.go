package domain

import "context"

// CreditBalanceRepository описывает хранилище балансов.
type CreditBalanceRepository interface {
	// FindByCustomerID возвращает баланс клиента или NotFoundError.
	FindByCustomerID(customerID CustomerID) (CreditBalance, error)
	// GetOrCreate лениво создаёт нулевой баланс при первом обращении.
	GetOrCreate(customerID CustomerID) (CreditBalance, error)
	// Create сохраняет новый баланс.
	Create(balance CreditBalance) error
	// Update применяет optimistic locking: запись проходит, только если
	// версия в хранилище равна balance.Version-1; при расхождении
	// возвращается ConcurrencyError и вся операция считается неуспешной.
	Update(balance CreditBalance) error
}

// CreditTransactionRepository — append-only леджер аудита.
type CreditTransactionRepository interface {
	// Append добавляет запись; записи никогда не изменяются и не удаляются.
	Append(transaction CreditTransaction) error
	// History возвращает записи клиента от новых к старым и общее количество.
	History(customerID CustomerID, limit, offset int) ([]CreditTransaction, int64, error)
}

// PurchaseFilter задаёт фильтры и пагинацию списка покупок.
type PurchaseFilter struct {
	CustomerID string
	Status     PurchaseStatus
	Limit      int
	Offset     int
}

// PurchaseRepository описывает хранилище покупок.
type PurchaseRepository interface {
	Create(purchase Purchase) error
	// Get возвращает покупку или NotFoundError.
	Get(id string) (Purchase, error)
	Update(purchase Purchase) error
	// List возвращает страницу покупок и общее количество под фильтром.
	List(filter PurchaseFilter) ([]Purchase, int64, error)
}

// RefundRepository описывает хранилище записей возвратов.
type RefundRepository interface {
	Create(refund Refund) error
	// ListByPurchase возвращает возвраты покупки от старых к новым.
	ListByPurchase(purchaseID string) ([]Refund, error)
}

// PromoCodeRepository описывает хранилище промокодов.
// Уникальность кода — без учёта регистра.
type PromoCodeRepository interface {
	Create(promo PromoCode) error
	// Get возвращает промокод по id или NotFoundError.
	Get(id string) (PromoCode, error)
	// FindByCode ищет промокод по коду без учёта регистра.
	FindByCode(code string) (PromoCode, error)
	Update(promo PromoCode) error
	// List возвращает страницу промокодов и общее количество;
	// пустой статус — без фильтра.
	List(status PromoCodeStatus, limit, offset int) ([]PromoCode, int64, error)
}

// Tx — набор репозиториев, привязанных к одной открытой транзакции.
// Один и тот же код репозитория работает и от корневого подключения,
// и внутри транзакции — без какой-либо рефлексии.
type Tx interface {
	Balances() CreditBalanceRepository
	Transactions() CreditTransactionRepository
	Purchases() PurchaseRepository
	Refunds() RefundRepository
}

// UnitOfWork исполняет функцию в одной атомарной единице: все мутации
// внутри fn фиксируются вместе или вместе отбрасываются. Любая ошибка
// fn (включая ShipmentFailedError изнутри саги) приводит к откату.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Store — полный интерфейс хранилища: корневые репозитории для чтения
// вне транзакции плюс unit of work для атомарных мутаций.
type Store interface {
	Tx
	UnitOfWork
	PromoCodes() PromoCodeRepository
}
