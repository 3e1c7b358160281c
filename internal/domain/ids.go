package domain

import "github.com/google/uuid"

// CustomerID — валидированный UUID клиента. Сравнение по значению.
type CustomerID struct {
	value string
}

// NewCustomerID проверяет, что идентификатор — непустой корректный UUID.
func NewCustomerID(value string) (CustomerID, error) {
	if value == "" {
		return CustomerID{}, ErrCustomerIDRequired
	}
	if err := uuid.Validate(value); err != nil {
		return CustomerID{}, ErrCustomerIDInvalid
	}
	return CustomerID{value: value}, nil
}

// String возвращает строковое представление UUID.
func (id CustomerID) String() string {
	return id.value
}

// IsZero сообщает, что идентификатор не был инициализирован.
func (id CustomerID) IsZero() bool {
	return id.value == ""
}

// ProductID — валидированный UUID товара. Сравнение по значению.
type ProductID struct {
	value string
}

// NewProductID проверяет, что идентификатор — непустой корректный UUID.
func NewProductID(value string) (ProductID, error) {
	if value == "" {
		return ProductID{}, ErrProductIDRequired
	}
	if err := uuid.Validate(value); err != nil {
		return ProductID{}, ErrProductIDInvalid
	}
	return ProductID{value: value}, nil
}

// String возвращает строковое представление UUID.
func (id ProductID) String() string {
	return id.value
}

// IsZero сообщает, что идентификатор не был инициализирован.
func (id ProductID) IsZero() bool {
	return id.value == ""
}
