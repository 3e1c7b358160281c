package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second
)

// querier — общий SQL-интерфейс для *sql.DB и *sql.Tx, благодаря которому
// один и тот же код репозитория работает и вне, и внутри транзакции.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Balances возвращает репозиторий балансов вне транзакции.
func (s *Store) Balances() domain.CreditBalanceRepository {
	return &balanceRepository{q: s.db}
}

// Transactions возвращает леджер вне транзакции.
func (s *Store) Transactions() domain.CreditTransactionRepository {
	return &transactionRepository{q: s.db}
}

// Purchases возвращает репозиторий покупок вне транзакции.
func (s *Store) Purchases() domain.PurchaseRepository {
	return &purchaseRepository{q: s.db}
}

// Refunds возвращает репозиторий возвратов вне транзакции.
func (s *Store) Refunds() domain.RefundRepository {
	return &refundRepository{q: s.db}
}

// PromoCodes возвращает репозиторий промокодов вне транзакции.
func (s *Store) PromoCodes() domain.PromoCodeRepository {
	return &promoRepository{q: s.db}
}

// WithinTx выполняет fn внутри одной транзакции PostgreSQL. Репозитории,
// выданные через tx, привязаны к этой транзакции и её контексту; ошибка
// fn откатывает все изменения разом.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&storeTx{ctx: ctx, tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// storeTx отдаёт репозитории, привязанные к открытой транзакции.
type storeTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *storeTx) Balances() domain.CreditBalanceRepository {
	return &balanceRepository{q: t.tx, ctx: t.ctx}
}

func (t *storeTx) Transactions() domain.CreditTransactionRepository {
	return &transactionRepository{q: t.tx, ctx: t.ctx}
}

func (t *storeTx) Purchases() domain.PurchaseRepository {
	return &purchaseRepository{q: t.tx, ctx: t.ctx}
}

func (t *storeTx) Refunds() domain.RefundRepository {
	return &refundRepository{q: t.tx, ctx: t.ctx}
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*storeTx)(nil)

// opContext возвращает контекст операции: контекст транзакции, если он
// есть, иначе фоновый с таймаутом.
func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(context.Background(), opTimeout)
}
