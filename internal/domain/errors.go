package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Ошибка отрицательной денежной суммы при создании Money.
	ErrMoneyNegative = errors.New("money amount cannot be negative")
	// Ошибка вычитания, дающего отрицательный результат.
	ErrMoneyNegativeResult = errors.New("cannot subtract: result would be negative")
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerIDRequired = errors.New("customer id is required")
	// Ошибка, если идентификатор клиента — не UUID.
	ErrCustomerIDInvalid = errors.New("customer id must be a valid uuid")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product id is required")
	// Ошибка, если идентификатор товара — не UUID.
	ErrProductIDInvalid = errors.New("product id must be a valid uuid")
	// Ошибка списания сверх текущего баланса.
	ErrInsufficientBalance = errors.New("insufficient credit balance")
	// Ошибка пустой причины транзакции: аудит требует причину всегда.
	ErrTransactionReasonRequired = errors.New("transaction reason is required")
	// Ошибка неизвестного типа леджерной операции.
	ErrUnknownTransactionType = errors.New("unknown credit transaction type")
	// Ошибка некорректного количества товара в покупке.
	ErrQuantityInvalid = errors.New("quantity must be greater than 0")
	// Ошибка завершения покупки не из статуса PENDING.
	ErrPurchaseNotPending = errors.New("only pending purchases can be completed")
	// Ошибка отмены покупки не из статуса PENDING.
	ErrPurchaseNotCancellable = errors.New("only pending purchases can be cancelled")
	// Ошибка возврата по покупке в неподходящем статусе.
	ErrPurchaseNotRefundable = errors.New("can only refund completed or partially refunded purchases")
	// Ошибка возврата сверх остатка по покупке.
	ErrRefundExceedsRemaining = errors.New("refund amount cannot exceed remaining purchase amount")
	// Ошибка нулевой или отрицательной суммы возврата.
	ErrRefundAmountInvalid = errors.New("refund amount must be greater than zero")
	// Ошибка активации истёкшего или исчерпанного промокода.
	ErrPromoCodeNotActivatable = errors.New("cannot activate expired or used up promo code")
)

// NotFoundError возвращается, когда сущность не найдена по идентификатору.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with identifier %s not found", e.Resource, e.ID)
}

// IsNotFound проверяет, является ли ошибка NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// ConcurrencyError сигнализирует о конфликте optimistic locking.
// Ретраи — решение вызывающей стороны, ядро их не выполняет.
type ConcurrencyError struct {
	Resource string
	ID       string
}

func NewConcurrencyError(resource, id string) *ConcurrencyError {
	return &ConcurrencyError{Resource: resource, ID: id}
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrent modification detected for %s %s", e.Resource, e.ID)
}

// IsConcurrencyError проверяет, является ли ошибка конфликтом версий.
func IsConcurrencyError(err error) bool {
	var target *ConcurrencyError
	return errors.As(err, &target)
}

// ValidationError несёт список пофлейдовых замечаний по входным данным.
// Выбрасывается до любых побочных эффектов.
type ValidationError struct {
	Message string
	Fields  []string
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, "; ")
}

// IsValidationError проверяет, является ли ошибка ошибкой валидации.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// InsufficientCreditError — у клиента не хватает баланса на операцию.
type InsufficientCreditError struct {
	CustomerID string
	Required   Money
	Available  Money
}

func NewInsufficientCreditError(customerID string, required, available Money) *InsufficientCreditError {
	return &InsufficientCreditError{CustomerID: customerID, Required: required, Available: available}
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit balance: customer %s has %s but needs %s",
		e.CustomerID, e.Available, e.Required)
}

// Unwrap позволяет errors.Is(err, ErrInsufficientBalance).
func (e *InsufficientCreditError) Unwrap() error {
	return ErrInsufficientBalance
}

// IsInsufficientCredit проверяет оба представления нехватки средств.
func IsInsufficientCredit(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// ShipmentFailedError — внешний сервис доставки отказал или недоступен.
// Всегда приводит к полному откату атомарной единицы саги.
type ShipmentFailedError struct {
	Reason string
	Err    error
}

func NewShipmentFailedError(reason string, err error) *ShipmentFailedError {
	return &ShipmentFailedError{Reason: reason, Err: err}
}

func (e *ShipmentFailedError) Error() string {
	return "shipment creation failed: " + e.Reason
}

func (e *ShipmentFailedError) Unwrap() error {
	return e.Err
}

// IsShipmentFailed проверяет, является ли ошибка отказом доставки.
func IsShipmentFailed(err error) bool {
	var target *ShipmentFailedError
	return errors.As(err, &target)
}
