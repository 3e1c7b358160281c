package credit

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/domain"
	"github.com/vladislavdragonenkov/credits/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/credits/internal/metrics"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// GrantParams — параметры начисления кредита.
type GrantParams struct {
	CustomerID string
	Amount     domain.Money
	Reason     string
	CreatedBy  string
	Metadata   map[string]interface{}
}

// DeductParams — параметры ручного списания кредита вне саги покупки.
type DeductParams struct {
	CustomerID        string
	Amount            domain.Money
	Reason            string
	RelatedPurchaseID string
	CreatedBy         string
	Metadata          map[string]interface{}
}

// Service управляет кредитным балансом и историей леджера.
// Каждая мутация баланса проходит через ExecuteCreditOperation и
// фиксируется вместе с записью аудита в одной атомарной единице.
type Service struct {
	store         domain.Store
	logger        *log.Entry
	metrics       *metrics.SagaMetrics
	kafkaProducer *kafka.Producer
}

// NewService создаёт рабочий экземпляр сервиса.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "credit")
	}
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics.NewSagaMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис с Kafka producer для публикации событий леджера.
func NewServiceWithKafka(store domain.Store, kafkaProducer *kafka.Producer, logger *log.Entry) *Service {
	service := NewService(store, logger)
	service.kafkaProducer = kafkaProducer
	return service
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "credit")
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Grant начисляет кредит клиенту и создаёт запись GRANT в леджере.
func (s *Service) Grant(ctx context.Context, params GrantParams) (domain.CreditBalance, error) {
	customerID, err := s.validateOperation(params.CustomerID, params.Amount, params.Reason)
	if err != nil {
		return domain.CreditBalance{}, err
	}

	balance, err := s.executeOperation(ctx, customerID, domain.CreditOperation{
		Type:      domain.CreditTransactionGrant,
		Amount:    params.Amount,
		Reason:    params.Reason,
		Metadata:  params.Metadata,
		CreatedBy: params.CreatedBy,
	})
	if err != nil {
		return domain.CreditBalance{}, err
	}

	s.logger.WithFields(log.Fields{
		"customer_id": customerID,
		"amount":      params.Amount.String(),
		"balance":     balance.CurrentBalance.String(),
	}).Info("credit granted")
	s.publishCreditEvent(kafka.EventTypeCreditGranted, customerID.String(), params.Amount, map[string]interface{}{
		"reason":  params.Reason,
		"balance": balance.CurrentBalance.String(),
	})

	return balance, nil
}

// Deduct списывает кредит вручную. Недостаток средств возвращает
// InsufficientCreditError, и баланс остаётся нетронутым.
func (s *Service) Deduct(ctx context.Context, params DeductParams) (domain.CreditBalance, error) {
	customerID, err := s.validateOperation(params.CustomerID, params.Amount, params.Reason)
	if err != nil {
		return domain.CreditBalance{}, err
	}

	balance, err := s.executeOperation(ctx, customerID, domain.CreditOperation{
		Type:              domain.CreditTransactionDeduct,
		Amount:            params.Amount,
		Reason:            params.Reason,
		RelatedPurchaseID: params.RelatedPurchaseID,
		Metadata:          params.Metadata,
		CreatedBy:         params.CreatedBy,
	})
	if err != nil {
		return domain.CreditBalance{}, err
	}

	s.logger.WithFields(log.Fields{
		"customer_id": customerID,
		"amount":      params.Amount.String(),
		"balance":     balance.CurrentBalance.String(),
	}).Info("credit deducted")
	s.publishCreditEvent(kafka.EventTypeCreditDeducted, customerID.String(), params.Amount, map[string]interface{}{
		"reason":  params.Reason,
		"balance": balance.CurrentBalance.String(),
	})

	return balance, nil
}

// Balance возвращает баланс клиента; для незнакомого клиента —
// лениво созданный нулевой баланс.
func (s *Service) Balance(ctx context.Context, customerID string) (domain.CreditBalance, error) {
	id, err := domain.NewCustomerID(customerID)
	if err != nil {
		return domain.CreditBalance{}, domain.NewValidationError(err.Error(), "customerId")
	}
	return s.store.Balances().GetOrCreate(id)
}

// History возвращает страницу записей леджера клиента от новых к старым
// и общее количество записей.
func (s *Service) History(ctx context.Context, customerID string, limit, offset int) ([]domain.CreditTransaction, int64, error) {
	id, err := domain.NewCustomerID(customerID)
	if err != nil {
		return nil, 0, domain.NewValidationError(err.Error(), "customerId")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Transactions().History(id, limit, offset)
}

func (s *Service) validateOperation(customerID string, amount domain.Money, reason string) (domain.CustomerID, error) {
	var fields []string
	id, err := domain.NewCustomerID(customerID)
	if err != nil {
		fields = append(fields, "customerId")
	}
	if amount.IsZero() {
		fields = append(fields, "amount")
	}
	if reason == "" {
		fields = append(fields, "reason")
	}
	if len(fields) > 0 {
		return domain.CustomerID{}, domain.NewValidationError("invalid credit operation", fields...)
	}
	return id, nil
}

func (s *Service) executeOperation(ctx context.Context, customerID domain.CustomerID, op domain.CreditOperation) (domain.CreditBalance, error) {
	var result domain.CreditBalance
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		balance, err := tx.Balances().GetOrCreate(customerID)
		if err != nil {
			return err
		}
		transaction, err := domain.ExecuteCreditOperation(&balance, op)
		if err != nil {
			if err == domain.ErrInsufficientBalance {
				return domain.NewInsufficientCreditError(customerID.String(), op.Amount, balance.CurrentBalance)
			}
			return err
		}
		if err := tx.Balances().Update(balance); err != nil {
			return err
		}
		if err := tx.Transactions().Append(transaction); err != nil {
			return err
		}
		result = balance
		return nil
	})
	if err != nil {
		return domain.CreditBalance{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordCreditOperation(string(op.Type))
	}
	return result, nil
}

// publishCreditEvent публикует событие леджера в Kafka (если producer настроен)
func (s *Service) publishCreditEvent(eventType kafka.EventType, customerID string, amount domain.Money, metadata map[string]interface{}) {
	if s.kafkaProducer == nil {
		return
	}

	event := kafka.NewCreditEvent(eventType, customerID, amount.String(), metadata)
	if err := s.kafkaProducer.PublishCreditEvent(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type":  eventType,
			"customer_id": customerID,
		}).Warn("failed to publish credit event to kafka")
	}
}
