package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// Store — in-memory хранилище для локальной разработки и тестов.
// Атомарная единица реализована через снимок состояния: WithinTx
// клонирует состояние, выполняет функцию над клоном и подменяет
// состояние только при успехе. Ошибка отбрасывает клон целиком,
// что даёт ту же семантику отката, что и транзакция PostgreSQL.
type Store struct {
	mu sync.Mutex
	st *state
}

// state — все таблицы хранилища. Сущности хранятся по значению,
// поэтому копирование map даёт независимый снимок.
type state struct {
	balances     map[string]domain.CreditBalance // ключ — customer id
	transactions []domain.CreditTransaction
	purchases    map[string]domain.Purchase
	refunds      map[string][]domain.Refund // ключ — purchase id
	promos       map[string]domain.PromoCode
}

func newState() *state {
	return &state{
		balances:  make(map[string]domain.CreditBalance),
		purchases: make(map[string]domain.Purchase),
		refunds:   make(map[string][]domain.Refund),
		promos:    make(map[string]domain.PromoCode),
	}
}

func (s *state) clone() *state {
	next := &state{
		balances:     make(map[string]domain.CreditBalance, len(s.balances)),
		transactions: make([]domain.CreditTransaction, len(s.transactions)),
		purchases:    make(map[string]domain.Purchase, len(s.purchases)),
		refunds:      make(map[string][]domain.Refund, len(s.refunds)),
		promos:       make(map[string]domain.PromoCode, len(s.promos)),
	}
	for k, v := range s.balances {
		next.balances[k] = v
	}
	copy(next.transactions, s.transactions)
	for k, v := range s.purchases {
		next.purchases[k] = v
	}
	for k, list := range s.refunds {
		cp := make([]domain.Refund, len(list))
		copy(cp, list)
		next.refunds[k] = cp
	}
	for k, v := range s.promos {
		next.promos[k] = v
	}
	return next
}

// NewStore возвращает пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Balances возвращает репозиторий балансов над живым состоянием.
func (s *Store) Balances() domain.CreditBalanceRepository {
	return &balanceRepository{store: s}
}

// Transactions возвращает леджер над живым состоянием.
func (s *Store) Transactions() domain.CreditTransactionRepository {
	return &transactionRepository{store: s}
}

// Purchases возвращает репозиторий покупок над живым состоянием.
func (s *Store) Purchases() domain.PurchaseRepository {
	return &purchaseRepository{store: s}
}

// Refunds возвращает репозиторий возвратов над живым состоянием.
func (s *Store) Refunds() domain.RefundRepository {
	return &refundRepository{store: s}
}

// PromoCodes возвращает репозиторий промокодов над живым состоянием.
func (s *Store) PromoCodes() domain.PromoCodeRepository {
	return &promoRepository{store: s}
}

// WithinTx выполняет fn над снимком состояния под глобальной блокировкой.
// Транзакции сериализуются; для dev-хранилища это осознанный компромисс.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(&storeTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// storeTx отдаёт репозитории, привязанные к снимку транзакции.
type storeTx struct {
	st *state
}

func (t *storeTx) Balances() domain.CreditBalanceRepository {
	return &balanceRepository{st: t.st}
}

func (t *storeTx) Transactions() domain.CreditTransactionRepository {
	return &transactionRepository{st: t.st}
}

func (t *storeTx) Purchases() domain.PurchaseRepository {
	return &purchaseRepository{st: t.st}
}

func (t *storeTx) Refunds() domain.RefundRepository {
	return &refundRepository{st: t.st}
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*storeTx)(nil)

// withState выполняет fn над актуальным состоянием: под блокировкой
// для корневых репозиториев, напрямую — внутри транзакции.
func withState(store *Store, st *state, fn func(st *state) error) error {
	if store != nil {
		store.mu.Lock()
		defer store.mu.Unlock()
		return fn(store.st)
	}
	return fn(st)
}
