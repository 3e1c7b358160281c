package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// purchaseRepository — in-memory реализация PurchaseRepository.
type purchaseRepository struct {
	store *Store
	st    *state
}

func (r *purchaseRepository) Create(purchase domain.Purchase) error {
	return withState(r.store, r.st, func(st *state) error {
		if _, exists := st.purchases[purchase.ID]; exists {
			return domain.NewConcurrencyError("Purchase", purchase.ID)
		}
		st.purchases[purchase.ID] = purchase
		return nil
	})
}

func (r *purchaseRepository) Get(id string) (domain.Purchase, error) {
	var found domain.Purchase
	err := withState(r.store, r.st, func(st *state) error {
		purchase, ok := st.purchases[id]
		if !ok {
			return domain.NewNotFoundError("Purchase", id)
		}
		found = purchase
		return nil
	})
	return found, err
}

func (r *purchaseRepository) Update(purchase domain.Purchase) error {
	return withState(r.store, r.st, func(st *state) error {
		if _, ok := st.purchases[purchase.ID]; !ok {
			return domain.NewNotFoundError("Purchase", purchase.ID)
		}
		st.purchases[purchase.ID] = purchase
		return nil
	})
}

func (r *purchaseRepository) List(filter domain.PurchaseFilter) ([]domain.Purchase, int64, error) {
	var page []domain.Purchase
	var total int64
	err := withState(r.store, r.st, func(st *state) error {
		matched := make([]domain.Purchase, 0, len(st.purchases))
		for _, purchase := range st.purchases {
			if filter.CustomerID != "" && purchase.CustomerID.String() != filter.CustomerID {
				continue
			}
			if filter.Status != "" && purchase.Status != filter.Status {
				continue
			}
			matched = append(matched, purchase)
		}
		total = int64(len(matched))

		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})

		if filter.Offset >= len(matched) {
			page = []domain.Purchase{}
			return nil
		}
		matched = matched[filter.Offset:]
		if filter.Limit > 0 && len(matched) > filter.Limit {
			matched = matched[:filter.Limit]
		}
		page = matched
		return nil
	})
	return page, total, err
}

// refundRepository — in-memory реализация RefundRepository.
type refundRepository struct {
	store *Store
	st    *state
}

func (r *refundRepository) Create(refund domain.Refund) error {
	return withState(r.store, r.st, func(st *state) error {
		st.refunds[refund.PurchaseID] = append(st.refunds[refund.PurchaseID], refund)
		return nil
	})
}

func (r *refundRepository) ListByPurchase(purchaseID string) ([]domain.Refund, error) {
	var result []domain.Refund
	err := withState(r.store, r.st, func(st *state) error {
		list := st.refunds[purchaseID]
		result = make([]domain.Refund, len(list))
		copy(result, list)
		return nil
	})
	return result, err
}

var _ domain.PurchaseRepository = (*purchaseRepository)(nil)
var _ domain.RefundRepository = (*refundRepository)(nil)
