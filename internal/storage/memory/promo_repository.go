package memory

import (
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// promoRepository — in-memory реализация PromoCodeRepository.
// Уникальность кода обеспечивается без учёта регистра.
type promoRepository struct {
	store *Store
	st    *state
}

func (r *promoRepository) Create(promo domain.PromoCode) error {
	return withState(r.store, r.st, func(st *state) error {
		for _, existing := range st.promos {
			if strings.EqualFold(existing.Code, promo.Code) {
				return domain.NewValidationError("promo code already exists", "code must be unique")
			}
		}
		st.promos[promo.ID] = promo
		return nil
	})
}

func (r *promoRepository) Get(id string) (domain.PromoCode, error) {
	var found domain.PromoCode
	err := withState(r.store, r.st, func(st *state) error {
		promo, ok := st.promos[id]
		if !ok {
			return domain.NewNotFoundError("PromoCode", id)
		}
		found = promo
		return nil
	})
	return found, err
}

func (r *promoRepository) FindByCode(code string) (domain.PromoCode, error) {
	var found domain.PromoCode
	err := withState(r.store, r.st, func(st *state) error {
		for _, promo := range st.promos {
			if strings.EqualFold(promo.Code, code) {
				found = promo
				return nil
			}
		}
		return domain.NewNotFoundError("PromoCode", code)
	})
	return found, err
}

func (r *promoRepository) Update(promo domain.PromoCode) error {
	return withState(r.store, r.st, func(st *state) error {
		if _, ok := st.promos[promo.ID]; !ok {
			return domain.NewNotFoundError("PromoCode", promo.ID)
		}
		st.promos[promo.ID] = promo
		return nil
	})
}

func (r *promoRepository) List(status domain.PromoCodeStatus, limit, offset int) ([]domain.PromoCode, int64, error) {
	var page []domain.PromoCode
	var total int64
	err := withState(r.store, r.st, func(st *state) error {
		matched := make([]domain.PromoCode, 0, len(st.promos))
		for _, promo := range st.promos {
			if status != "" && promo.Status != status {
				continue
			}
			matched = append(matched, promo)
		}
		total = int64(len(matched))

		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].Code < matched[j].Code
		})

		if offset >= len(matched) {
			page = []domain.PromoCode{}
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

var _ domain.PromoCodeRepository = (*promoRepository)(nil)
