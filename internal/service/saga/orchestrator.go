package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/domain"
	"github.com/vladislavdragonenkov/credits/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/credits/internal/metrics"
)

const shipmentTimeout = 10 * time.Second

// CreatePurchaseParams — входные параметры саги покупки.
type CreatePurchaseParams struct {
	CustomerID string
	ProductID  string
	Quantity   int
	CreatedBy  string
}

// RefundParams — входные параметры возврата.
// Сумма обязательна и должна быть положительной.
type RefundParams struct {
	PurchaseID string
	Amount     domain.Money
	Reason     string
	RefundedBy string
}

// Orchestrator управляет сагой покупки: списание кредита, создание
// покупки и заявка на доставку выполняются как одна атомарная единица.
type Orchestrator interface {
	CreatePurchase(ctx context.Context, params CreatePurchaseParams) (domain.Purchase, error)
	RefundPurchase(ctx context.Context, params RefundParams) (domain.Purchase, error)
}

// orchestrator реализует последовательность шагов саги:
// Debit → Create Purchase → Ship → Complete, всё внутри одной транзакции.
// Отказ доставки откатывает и списание, и покупку.
type orchestrator struct {
	store         domain.Store
	customers     domain.CustomerService
	products      domain.ProductService
	shipments     domain.ShipmentService
	logger        *log.Entry
	metrics       *metrics.SagaMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer для event-driven архитектуры
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(
	store domain.Store,
	customers domain.CustomerService,
	products domain.ProductService,
	shipments domain.ShipmentService,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &orchestrator{
		store:     store,
		customers: customers,
		products:  products,
		shipments: shipments,
		logger:    logger,
		metrics:   metrics.NewSagaMetrics(),
	}
}

// NewOrchestratorWithKafka создаёт оркестратор с Kafka producer для event-driven архитектуры.
func NewOrchestratorWithKafka(
	store domain.Store,
	customers domain.CustomerService,
	products domain.ProductService,
	shipments domain.ShipmentService,
	kafkaProducer *kafka.Producer,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &orchestrator{
		store:         store,
		customers:     customers,
		products:      products,
		shipments:     shipments,
		logger:        logger,
		metrics:       metrics.NewSagaMetrics(),
		kafkaProducer: kafkaProducer,
	}
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(
	store domain.Store,
	customers domain.CustomerService,
	products domain.ProductService,
	shipments domain.ShipmentService,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &orchestrator{
		store:     store,
		customers: customers,
		products:  products,
		shipments: shipments,
		logger:    logger,
		metrics:   nil, // Отключаем метрики для тестов
	}
}

// CreatePurchase выполняет сагу покупки. При любой ошибке после начала
// транзакции — включая отказ доставки — баланс и покупка откатываются,
// и в системе не остаётся следов операции.
func (o *orchestrator) CreatePurchase(ctx context.Context, params CreatePurchaseParams) (domain.Purchase, error) {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.RecordPurchaseStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordPurchaseDuration(time.Since(start))
			o.metrics.RecordPurchaseFinished()
		}
	}()

	customerID, productID, err := o.validatePurchaseParams(params)
	if err != nil {
		o.recordFailure()
		return domain.Purchase{}, err
	}

	customer, err := o.customers.GetCustomer(ctx, customerID.String())
	if err != nil {
		o.logger.WithError(err).WithField("customer_id", customerID).Warn("customer lookup failed")
		o.recordFailure()
		return domain.Purchase{}, err
	}
	product, err := o.products.GetProduct(ctx, productID.String())
	if err != nil {
		o.logger.WithError(err).WithField("product_id", productID).Warn("product lookup failed")
		o.recordFailure()
		return domain.Purchase{}, err
	}

	totalAmount := product.Price.MultiplyInt(params.Quantity)

	// Предварительная проверка баланса вне транзакции. Решающая проверка
	// происходит внутри транзакции на свежем балансе; эта лишь отсеивает
	// заведомо провальные покупки без открытия транзакции.
	balance, err := o.store.Balances().GetOrCreate(customerID)
	if err != nil {
		o.recordFailure()
		return domain.Purchase{}, err
	}
	if !domain.CanAffordPurchase(&balance, totalAmount) {
		o.recordFailure()
		return domain.Purchase{}, domain.NewInsufficientCreditError(
			customerID.String(), totalAmount, balance.CurrentBalance)
	}

	// Идентификатор покупки генерируется до списания, чтобы запись
	// леджера сразу ссылалась на покупку.
	purchaseID := uuid.NewString()

	var purchase domain.Purchase
	err = o.store.WithinTx(ctx, func(tx domain.Tx) error {
		stepStart := time.Now()

		current, err := tx.Balances().GetOrCreate(customerID)
		if err != nil {
			return err
		}

		transaction, err := domain.ExecuteCreditOperation(&current, domain.CreditOperation{
			Type:              domain.CreditTransactionDeduct,
			Amount:            totalAmount,
			Reason:            fmt.Sprintf("Purchase of %dx %s", params.Quantity, product.Name),
			RelatedPurchaseID: purchaseID,
			CreatedBy:         params.CreatedBy,
		})
		if err != nil {
			if domain.IsInsufficientCredit(err) || err == domain.ErrInsufficientBalance {
				return domain.NewInsufficientCreditError(
					customerID.String(), totalAmount, current.CurrentBalance)
			}
			return err
		}
		if err := tx.Balances().Update(current); err != nil {
			return err
		}
		if err := tx.Transactions().Append(transaction); err != nil {
			return err
		}
		o.recordStep("debit", stepStart)

		stepStart = time.Now()
		purchase, err = domain.NewPurchase(domain.PurchaseParams{
			ID:               purchaseID,
			CustomerID:       customerID,
			ProductID:        productID,
			Quantity:         params.Quantity,
			UnitPrice:        product.Price,
			ProductSnapshot:  &product,
			CustomerSnapshot: &customer,
			CreatedBy:        params.CreatedBy,
		})
		if err != nil {
			return err
		}
		if err := tx.Purchases().Create(purchase); err != nil {
			return err
		}
		o.recordStep("create_purchase", stepStart)

		// Доставка вызывается внутри транзакции: её отказ или таймаут
		// откатывает и списание, и покупку.
		stepStart = time.Now()
		shipmentCtx, cancel := context.WithTimeout(ctx, shipmentTimeout)
		defer cancel()
		shipmentID, err := o.shipments.CreateShipment(shipmentCtx, customer.ShippingAddress, []domain.ShipmentItem{
			{SKU: product.SKU, Quantity: params.Quantity},
		})
		if err != nil {
			if o.metrics != nil {
				o.metrics.RecordShipmentFailure()
			}
			return domain.NewShipmentFailedError("shipment creation failed", err)
		}
		o.recordStep("shipment", stepStart)

		if err := purchase.Complete(shipmentID); err != nil {
			return err
		}
		return tx.Purchases().Update(purchase)
	})
	if err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"purchase_id": purchaseID,
			"customer_id": customerID,
		}).Warn("purchase saga rolled back")
		o.recordFailure()
		o.publishPurchaseEvent(kafka.EventTypePurchaseFailed, purchaseID, customerID.String(), map[string]interface{}{
			"reason": err.Error(),
		})
		return domain.Purchase{}, err
	}

	if o.metrics != nil {
		o.metrics.RecordPurchaseCompleted()
		o.metrics.RecordCreditOperation(string(domain.CreditTransactionDeduct))
	}
	o.logger.WithFields(log.Fields{
		"purchase_id":  purchase.ID,
		"customer_id":  customerID,
		"total_amount": purchase.TotalAmount.String(),
		"shipment_id":  purchase.ShipmentID,
	}).Info("purchase saga completed")
	o.publishPurchaseEvent(kafka.EventTypePurchaseCompleted, purchase.ID, customerID.String(), map[string]interface{}{
		"total_amount": purchase.TotalAmount.String(),
		"shipment_id":  purchase.ShipmentID,
	})

	return purchase, nil
}

// RefundPurchase возвращает сумму по покупке: создаёт запись возврата,
// увеличивает баланс через леджер и пересчитывает статус покупки —
// всё в одной транзакции.
func (o *orchestrator) RefundPurchase(ctx context.Context, params RefundParams) (domain.Purchase, error) {
	if params.PurchaseID == "" {
		return domain.Purchase{}, domain.NewValidationError("purchase id is required", "purchaseId")
	}

	var purchase domain.Purchase
	err := o.store.WithinTx(ctx, func(tx domain.Tx) error {
		var err error
		purchase, err = tx.Purchases().Get(params.PurchaseID)
		if err != nil {
			return err
		}

		if ok, reason := domain.CanBeRefunded(&purchase); !ok {
			return domain.NewValidationError(reason)
		}

		amount := params.Amount
		if ok, message := domain.ValidateRefundAmount(&purchase, amount); !ok {
			return domain.NewValidationError(message, "amount")
		}

		refund, err := domain.NewRefund(
			uuid.NewString(), purchase.ID, amount, params.Reason, params.RefundedBy)
		if err != nil {
			return err
		}
		if err := tx.Refunds().Create(refund); err != nil {
			return err
		}

		if err := purchase.Refund(amount); err != nil {
			return err
		}
		if err := tx.Purchases().Update(purchase); err != nil {
			return err
		}

		balance, err := tx.Balances().GetOrCreate(purchase.CustomerID)
		if err != nil {
			return err
		}
		reason := params.Reason
		if reason == "" {
			reason = fmt.Sprintf("Refund for purchase %s", purchase.ID)
		}
		transaction, err := domain.ExecuteCreditOperation(&balance, domain.CreditOperation{
			Type:              domain.CreditTransactionRefund,
			Amount:            amount,
			Reason:            reason,
			RelatedPurchaseID: purchase.ID,
			CreatedBy:         params.RefundedBy,
		})
		if err != nil {
			return err
		}
		if err := tx.Balances().Update(balance); err != nil {
			return err
		}
		return tx.Transactions().Append(transaction)
	})
	if err != nil {
		o.logger.WithError(err).WithField("purchase_id", params.PurchaseID).Warn("refund rolled back")
		return domain.Purchase{}, err
	}

	if o.metrics != nil {
		o.metrics.RecordPurchaseRefunded()
		o.metrics.RecordCreditOperation(string(domain.CreditTransactionRefund))
	}
	o.logger.WithFields(log.Fields{
		"purchase_id":     purchase.ID,
		"customer_id":     purchase.CustomerID,
		"refunded_amount": purchase.RefundedAmount.String(),
		"status":          purchase.Status,
	}).Info("refund completed")
	o.publishPurchaseEvent(kafka.EventTypePurchaseRefunded, purchase.ID, purchase.CustomerID.String(), map[string]interface{}{
		"refunded_amount": purchase.RefundedAmount.String(),
		"status":          string(purchase.Status),
	})

	return purchase, nil
}

func (o *orchestrator) validatePurchaseParams(params CreatePurchaseParams) (domain.CustomerID, domain.ProductID, error) {
	var fields []string
	customerID, err := domain.NewCustomerID(params.CustomerID)
	if err != nil {
		fields = append(fields, "customerId")
	}
	productID, err := domain.NewProductID(params.ProductID)
	if err != nil {
		fields = append(fields, "productId")
	}
	if params.Quantity <= 0 {
		fields = append(fields, "quantity")
	}
	if len(fields) > 0 {
		return domain.CustomerID{}, domain.ProductID{}, domain.NewValidationError("invalid purchase request", fields...)
	}
	return customerID, productID, nil
}

func (o *orchestrator) recordFailure() {
	if o.metrics != nil {
		o.metrics.RecordPurchaseFailed()
	}
}

func (o *orchestrator) recordStep(step string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordStepDuration(step, time.Since(start))
	}
}

// publishPurchaseEvent публикует событие покупки в Kafka (если producer настроен)
func (o *orchestrator) publishPurchaseEvent(eventType kafka.EventType, purchaseID, customerID string, metadata map[string]interface{}) {
	if o.kafkaProducer == nil {
		return // Kafka не настроен, пропускаем
	}

	event := kafka.NewPurchaseEvent(eventType, purchaseID, customerID, metadata)
	if err := o.kafkaProducer.PublishPurchaseEvent(event); err != nil {
		// Логируем ошибку, но не прерываем сагу - Kafka опциональный
		o.logger.WithError(err).WithFields(log.Fields{
			"event_type":  eventType,
			"purchase_id": purchaseID,
		}).Warn("failed to publish purchase event to kafka")
	}
}

var _ Orchestrator = (*orchestrator)(nil)
