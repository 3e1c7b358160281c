package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// balanceRepository — PostgreSQL-реализация CreditBalanceRepository.
// ctx != nil означает, что репозиторий привязан к открытой транзакции.
type balanceRepository struct {
	q   querier
	ctx context.Context
}

func (r *balanceRepository) FindByCustomerID(customerID domain.CustomerID) (domain.CreditBalance, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	return r.scanBalance(r.q.QueryRowContext(ctx, `
		SELECT id, customer_id, current_balance, version, created_at, updated_at
		FROM credit_balances
		WHERE customer_id = $1
	`, customerID.String()), customerID.String())
}

func (r *balanceRepository) GetOrCreate(customerID domain.CustomerID) (domain.CreditBalance, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	balance, err := r.scanBalance(r.q.QueryRowContext(ctx, `
		SELECT id, customer_id, current_balance, version, created_at, updated_at
		FROM credit_balances
		WHERE customer_id = $1
	`, customerID.String()), customerID.String())
	if err == nil {
		return balance, nil
	}
	if !domain.IsNotFound(err) {
		return domain.CreditBalance{}, err
	}

	// Ленивое создание нулевого баланса. При гонке двух создателей
	// уникальный индекс по customer_id оставит ровно одну строку,
	// проигравший перечитает её.
	fresh := domain.NewCreditBalance(uuid.NewString(), customerID)
	if err := r.insertBalance(ctx, fresh); err != nil {
		if isUniqueViolation(err) {
			return r.scanBalance(r.q.QueryRowContext(ctx, `
				SELECT id, customer_id, current_balance, version, created_at, updated_at
				FROM credit_balances
				WHERE customer_id = $1
			`, customerID.String()), customerID.String())
		}
		return domain.CreditBalance{}, err
	}
	return fresh, nil
}

func (r *balanceRepository) Create(balance domain.CreditBalance) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	if err := r.insertBalance(ctx, balance); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConcurrencyError("CreditBalance", balance.CustomerID.String())
		}
		return err
	}
	return nil
}

func (r *balanceRepository) Update(balance domain.CreditBalance) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	// Optimistic locking: строка обновляется, только если сохранённая
	// версия ровно на единицу меньше записываемой.
	res, err := r.q.ExecContext(ctx, `
		UPDATE credit_balances
		SET current_balance = $1,
		    version = $2,
		    updated_at = $3
		WHERE customer_id = $4
		  AND version = $5
	`,
		balance.CurrentBalance.String(),
		balance.Version,
		balance.UpdatedAt,
		balance.CustomerID.String(),
		balance.Version-1,
	)
	if err != nil {
		return fmt.Errorf("update credit balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.balanceExists(ctx, balance.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NewNotFoundError("CreditBalance", balance.CustomerID.String())
		}
		return domain.NewConcurrencyError("CreditBalance", balance.CustomerID.String())
	}

	return nil
}

func (r *balanceRepository) insertBalance(ctx context.Context, balance domain.CreditBalance) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO credit_balances (
			id, customer_id, current_balance, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		balance.ID, balance.CustomerID.String(), balance.CurrentBalance.String(),
		balance.Version, balance.CreatedAt, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit balance: %w", err)
	}
	return nil
}

func (r *balanceRepository) balanceExists(ctx context.Context, customerID domain.CustomerID) (bool, error) {
	var id string
	err := r.q.QueryRowContext(ctx, `
		SELECT id FROM credit_balances WHERE customer_id = $1
	`, customerID.String()).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check balance exists: %w", err)
}

func (r *balanceRepository) scanBalance(row *sql.Row, key string) (domain.CreditBalance, error) {
	var (
		balance    domain.CreditBalance
		customerID string
		amount     string
	)
	err := row.Scan(
		&balance.ID, &customerID, &amount,
		&balance.Version, &balance.CreatedAt, &balance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CreditBalance{}, domain.NewNotFoundError("CreditBalance", key)
		}
		return domain.CreditBalance{}, fmt.Errorf("select credit balance: %w", err)
	}

	balance.CustomerID, err = domain.NewCustomerID(customerID)
	if err != nil {
		return domain.CreditBalance{}, fmt.Errorf("parse stored customer id: %w", err)
	}
	balance.CurrentBalance, err = domain.MoneyFromString(amount)
	if err != nil {
		return domain.CreditBalance{}, fmt.Errorf("parse stored balance: %w", err)
	}

	return balance, nil
}

// transactionRepository — PostgreSQL-реализация append-only леджера.
type transactionRepository struct {
	q   querier
	ctx context.Context
}

func (r *transactionRepository) Append(transaction domain.CreditTransaction) error {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	var metadata []byte
	if transaction.Metadata != nil {
		encoded, err := json.Marshal(transaction.Metadata)
		if err != nil {
			return fmt.Errorf("marshal transaction metadata: %w", err)
		}
		metadata = encoded
	}

	var relatedPurchaseID any
	if transaction.RelatedPurchaseID != "" {
		relatedPurchaseID = transaction.RelatedPurchaseID
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO credit_transactions (
			id, customer_id, type, amount, balance_before, balance_after,
			reason, related_purchase_id, metadata, created_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		transaction.ID, transaction.CustomerID.String(), string(transaction.Type),
		transaction.Amount.String(), transaction.BalanceBefore.String(), transaction.BalanceAfter.String(),
		transaction.Reason, relatedPurchaseID, metadata, transaction.CreatedBy, transaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) History(customerID domain.CustomerID, limit, offset int) ([]domain.CreditTransaction, int64, error) {
	ctx, cancel := opContext(r.ctx)
	defer cancel()

	var total int64
	if err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM credit_transactions WHERE customer_id = $1
	`, customerID.String()).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count credit transactions: %w", err)
	}

	query := `
		SELECT id, customer_id, type, amount, balance_before, balance_after,
		       reason, related_purchase_id, metadata, created_by, created_at
		FROM credit_transactions
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2
	`
	args := []any{customerID.String(), offset}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list credit transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.CreditTransaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate credit transactions: %w", err)
	}

	return transactions, total, nil
}

func scanTransaction(rows *sql.Rows) (domain.CreditTransaction, error) {
	var (
		transaction       domain.CreditTransaction
		customerID        string
		txType            string
		amount            string
		balanceBefore     string
		balanceAfter      string
		relatedPurchaseID sql.NullString
		metadata          []byte
	)
	if err := rows.Scan(
		&transaction.ID, &customerID, &txType, &amount, &balanceBefore, &balanceAfter,
		&transaction.Reason, &relatedPurchaseID, &metadata, &transaction.CreatedBy, &transaction.CreatedAt,
	); err != nil {
		return domain.CreditTransaction{}, fmt.Errorf("scan credit transaction: %w", err)
	}

	var err error
	transaction.CustomerID, err = domain.NewCustomerID(customerID)
	if err != nil {
		return domain.CreditTransaction{}, fmt.Errorf("parse stored customer id: %w", err)
	}
	transaction.Type = domain.CreditTransactionType(txType)
	if transaction.Amount, err = domain.MoneyFromString(amount); err != nil {
		return domain.CreditTransaction{}, fmt.Errorf("parse transaction amount: %w", err)
	}
	if transaction.BalanceBefore, err = domain.MoneyFromString(balanceBefore); err != nil {
		return domain.CreditTransaction{}, fmt.Errorf("parse balance before: %w", err)
	}
	if transaction.BalanceAfter, err = domain.MoneyFromString(balanceAfter); err != nil {
		return domain.CreditTransaction{}, fmt.Errorf("parse balance after: %w", err)
	}
	transaction.RelatedPurchaseID = relatedPurchaseID.String
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &transaction.Metadata); err != nil {
			return domain.CreditTransaction{}, fmt.Errorf("unmarshal transaction metadata: %w", err)
		}
	}

	return transaction, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.CreditBalanceRepository = (*balanceRepository)(nil)
var _ domain.CreditTransactionRepository = (*transactionRepository)(nil)
