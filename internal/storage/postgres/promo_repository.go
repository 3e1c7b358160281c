package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// promoRepository — PostgreSQL-реализация PromoCodeRepository.
// Уникальность кода без учёта регистра обеспечивает индекс по UPPER(code).
type promoRepository struct {
	q   querier
	ctx context.Context
}

const promoColumns = `
	id, code, type, value, min_purchase_amount, max_discount_amount,
	max_usage_count, current_usage_count, valid_from, valid_until,
	status, applicable_product_ids, created_at, updated_at
`

func (r *promoRepository) Create(promo domain.PromoCode) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	productIDs, err := marshalProductIDs(promo.ApplicableProductIDs)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO promo_codes (`+promoColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		promo.ID, promo.Code, string(promo.Type), promo.Value.StringFixed(2),
		moneyPtrString(promo.MinPurchaseAmount), moneyPtrString(promo.MaxDiscountAmount),
		promo.MaxUsageCount, promo.CurrentUsageCount, promo.ValidFrom, promo.ValidUntil,
		string(promo.Status), productIDs, promo.CreatedAt, promo.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("promo code already exists", "code must be unique")
		}
		return fmt.Errorf("insert promo code: %w", err)
	}
	return nil
}

func (r *promoRepository) Get(id string) (domain.PromoCode, error) {
	return r.findOne(`WHERE id = $1`, id)
}

func (r *promoRepository) FindByCode(code string) (domain.PromoCode, error) {
	return r.findOne(`WHERE UPPER(code) = UPPER($1)`, code)
}

func (r *promoRepository) Update(promo domain.PromoCode) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE promo_codes
		SET current_usage_count = $1,
		    status = $2,
		    updated_at = $3
		WHERE id = $4
	`,
		promo.CurrentUsageCount, string(promo.Status), promo.UpdatedAt, promo.ID,
	)
	if err != nil {
		return fmt.Errorf("update promo code: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("PromoCode", promo.ID)
	}
	return nil
}

func (r *promoRepository) List(status domain.PromoCodeStatus, limit, offset int) ([]domain.PromoCode, int64, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	where := ""
	args := make([]any, 0, 3)
	if status != "" {
		args = append(args, string(status))
		where = " AND status = $1"
	}

	var total int64
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM promo_codes WHERE TRUE`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count promo codes: %w", err)
	}

	args = append(args, offset)
	query := `
		SELECT ` + promoColumns + `
		FROM promo_codes
		WHERE TRUE` + where + `
		ORDER BY created_at DESC, code ASC
		OFFSET $` + strconv.Itoa(len(args))
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	promos := make([]domain.PromoCode, 0)
	for rows.Next() {
		promo, err := scanPromo(rows)
		if err != nil {
			return nil, 0, err
		}
		promos = append(promos, promo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate promo codes: %w", err)
	}

	return promos, total, nil
}

func (r *promoRepository) findOne(where string, key string) (domain.PromoCode, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+promoColumns+`
		FROM promo_codes
		`+where, key)
	if err != nil {
		return domain.PromoCode{}, fmt.Errorf("select promo code: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.PromoCode{}, fmt.Errorf("select promo code: %w", err)
		}
		return domain.PromoCode{}, domain.NewNotFoundError("PromoCode", key)
	}
	return scanPromo(rows)
}

func scanPromo(rows *sql.Rows) (domain.PromoCode, error) {
	var (
		promo       domain.PromoCode
		promoType   string
		value       string
		minPurchase sql.NullString
		maxDiscount sql.NullString
		status      string
		productIDs  []byte
	)
	if err := rows.Scan(
		&promo.ID, &promo.Code, &promoType, &value, &minPurchase, &maxDiscount,
		&promo.MaxUsageCount, &promo.CurrentUsageCount, &promo.ValidFrom, &promo.ValidUntil,
		&status, &productIDs, &promo.CreatedAt, &promo.UpdatedAt,
	); err != nil {
		return domain.PromoCode{}, fmt.Errorf("scan promo code row: %w", err)
	}

	promo.Type = domain.PromoCodeType(promoType)
	promo.Status = domain.PromoCodeStatus(status)

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return domain.PromoCode{}, fmt.Errorf("parse promo value: %w", err)
	}
	promo.Value = parsed

	if promo.MinPurchaseAmount, err = scanMoneyPtr(minPurchase); err != nil {
		return domain.PromoCode{}, fmt.Errorf("parse min purchase amount: %w", err)
	}
	if promo.MaxDiscountAmount, err = scanMoneyPtr(maxDiscount); err != nil {
		return domain.PromoCode{}, fmt.Errorf("parse max discount amount: %w", err)
	}

	if len(productIDs) > 0 {
		if err := json.Unmarshal(productIDs, &promo.ApplicableProductIDs); err != nil {
			return domain.PromoCode{}, fmt.Errorf("unmarshal applicable product ids: %w", err)
		}
	}

	return promo, nil
}

func marshalProductIDs(ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("marshal applicable product ids: %w", err)
	}
	return encoded, nil
}

func moneyPtrString(m *domain.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}

func scanMoneyPtr(value sql.NullString) (*domain.Money, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := domain.MoneyFromString(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

var _ domain.PromoCodeRepository = (*promoRepository)(nil)
