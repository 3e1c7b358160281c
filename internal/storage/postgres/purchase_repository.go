package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// purchaseRepository — PostgreSQL-реализация PurchaseRepository.
type purchaseRepository struct {
	q   querier
	ctx context.Context
}

const purchaseColumns = `
	id, customer_id, product_id, quantity, unit_price, total_amount,
	refunded_amount, status, shipment_id, product_snapshot, customer_snapshot,
	created_by, created_at, updated_at
`

func (r *purchaseRepository) Create(purchase domain.Purchase) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	productSnapshot, customerSnapshot, err := marshalSnapshots(purchase)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		purchase.ID, purchase.CustomerID.String(), purchase.ProductID.String(),
		purchase.Quantity, purchase.UnitPrice.String(), purchase.TotalAmount.String(),
		purchase.RefundedAmount.String(), string(purchase.Status), purchase.ShipmentID,
		productSnapshot, customerSnapshot,
		purchase.CreatedBy, purchase.CreatedAt, purchase.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConcurrencyError("Purchase", purchase.ID)
		}
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r *purchaseRepository) Get(id string) (domain.Purchase, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE id = $1
	`, id)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("select purchase: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Purchase{}, fmt.Errorf("select purchase: %w", err)
		}
		return domain.Purchase{}, domain.NewNotFoundError("Purchase", id)
	}
	return scanPurchase(rows)
}

func (r *purchaseRepository) Update(purchase domain.Purchase) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE purchases
		SET refunded_amount = $1,
		    status = $2,
		    shipment_id = $3,
		    updated_at = $4
		WHERE id = $5
	`,
		purchase.RefundedAmount.String(), string(purchase.Status),
		purchase.ShipmentID, purchase.UpdatedAt, purchase.ID,
	)
	if err != nil {
		return fmt.Errorf("update purchase: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("Purchase", purchase.ID)
	}
	return nil
}

func (r *purchaseRepository) List(filter domain.PurchaseFilter) ([]domain.Purchase, int64, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	where := ""
	args := make([]any, 0, 4)
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where += " AND customer_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += " AND status = $" + strconv.Itoa(len(args))
	}

	var total int64
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchases WHERE TRUE`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	args = append(args, filter.Offset)
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE TRUE` + where + `
		ORDER BY created_at DESC, id DESC
		OFFSET $` + strconv.Itoa(len(args))
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0)
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, total, nil
}

func marshalSnapshots(purchase domain.Purchase) ([]byte, []byte, error) {
	var productSnapshot, customerSnapshot []byte
	if purchase.ProductSnapshot != nil {
		encoded, err := json.Marshal(purchase.ProductSnapshot)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal product snapshot: %w", err)
		}
		productSnapshot = encoded
	}
	if purchase.CustomerSnapshot != nil {
		encoded, err := json.Marshal(purchase.CustomerSnapshot)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal customer snapshot: %w", err)
		}
		customerSnapshot = encoded
	}
	return productSnapshot, customerSnapshot, nil
}

func scanPurchase(rows *sql.Rows) (domain.Purchase, error) {
	var (
		purchase         domain.Purchase
		customerID       string
		productID        string
		unitPrice        string
		totalAmount      string
		refundedAmount   string
		status           string
		productSnapshot  []byte
		customerSnapshot []byte
	)
	if err := rows.Scan(
		&purchase.ID, &customerID, &productID, &purchase.Quantity,
		&unitPrice, &totalAmount, &refundedAmount, &status, &purchase.ShipmentID,
		&productSnapshot, &customerSnapshot,
		&purchase.CreatedBy, &purchase.CreatedAt, &purchase.UpdatedAt,
	); err != nil {
		return domain.Purchase{}, fmt.Errorf("scan purchase row: %w", err)
	}

	var err error
	if purchase.CustomerID, err = domain.NewCustomerID(customerID); err != nil {
		return domain.Purchase{}, fmt.Errorf("parse stored customer id: %w", err)
	}
	if purchase.ProductID, err = domain.NewProductID(productID); err != nil {
		return domain.Purchase{}, fmt.Errorf("parse stored product id: %w", err)
	}
	if purchase.UnitPrice, err = domain.MoneyFromString(unitPrice); err != nil {
		return domain.Purchase{}, fmt.Errorf("parse unit price: %w", err)
	}
	if purchase.TotalAmount, err = domain.MoneyFromString(totalAmount); err != nil {
		return domain.Purchase{}, fmt.Errorf("parse total amount: %w", err)
	}
	if purchase.RefundedAmount, err = domain.MoneyFromString(refundedAmount); err != nil {
		return domain.Purchase{}, fmt.Errorf("parse refunded amount: %w", err)
	}
	purchase.Status = domain.PurchaseStatus(status)

	if len(productSnapshot) > 0 {
		snapshot := &domain.ProductSnapshot{}
		if err := json.Unmarshal(productSnapshot, snapshot); err != nil {
			return domain.Purchase{}, fmt.Errorf("unmarshal product snapshot: %w", err)
		}
		purchase.ProductSnapshot = snapshot
	}
	if len(customerSnapshot) > 0 {
		snapshot := &domain.CustomerSnapshot{}
		if err := json.Unmarshal(customerSnapshot, snapshot); err != nil {
			return domain.Purchase{}, fmt.Errorf("unmarshal customer snapshot: %w", err)
		}
		purchase.CustomerSnapshot = snapshot
	}

	return purchase, nil
}

// refundRepository — PostgreSQL-реализация RefundRepository.
type refundRepository struct {
	q   querier
	ctx context.Context
}

func (r *refundRepository) Create(refund domain.Refund) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refunds (
			id, purchase_id, amount, reason, refunded_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		refund.ID, refund.PurchaseID, refund.Amount.String(),
		refund.Reason, refund.RefundedBy, refund.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

func (r *refundRepository) ListByPurchase(purchaseID string) ([]domain.Refund, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, purchase_id, amount, reason, refunded_by, created_at
		FROM refunds
		WHERE purchase_id = $1
		ORDER BY created_at ASC, id ASC
	`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	refunds := make([]domain.Refund, 0)
	for rows.Next() {
		var refund domain.Refund
		var amount string
		if err := rows.Scan(
			&refund.ID, &refund.PurchaseID, &amount,
			&refund.Reason, &refund.RefundedBy, &refund.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan refund row: %w", err)
		}
		if refund.Amount, err = domain.MoneyFromString(amount); err != nil {
			return nil, fmt.Errorf("parse refund amount: %w", err)
		}
		refunds = append(refunds, refund)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refunds: %w", err)
	}

	return refunds, nil
}

var _ domain.PurchaseRepository = (*purchaseRepository)(nil)
var _ domain.RefundRepository = (*refundRepository)(nil)
