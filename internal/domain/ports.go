package domain

import "context"

// Address — почтовый адрес клиента из внешнего API.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	State      string `json:"state"`
	Country    string `json:"country"`
}

// CustomerSnapshot — снимок клиента на момент покупки.
type CustomerSnapshot struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	BillingAddress  Address `json:"billingAddress"`
	ShippingAddress Address `json:"shippingAddress"`
}

// ProductSnapshot — снимок товара на момент покупки.
type ProductSnapshot struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       Money  `json:"price"`
}

// ShipmentItem — одна позиция в заявке на доставку.
type ShipmentItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// CustomerService описывает внешний сервис клиентов (read-only).
type CustomerService interface {
	// GetCustomer возвращает снимок клиента или NotFoundError.
	GetCustomer(ctx context.Context, customerID string) (CustomerSnapshot, error)
}

// ProductService описывает внешний сервис каталога (read-only).
type ProductService interface {
	// GetProduct возвращает снимок товара или NotFoundError.
	GetProduct(ctx context.Context, productID string) (ProductSnapshot, error)
}

// ShipmentService описывает ненадёжный внешний сервис доставки.
// Отказ или таймаут вызова трактуется как ShipmentFailedError и
// откатывает всю атомарную единицу саги.
type ShipmentService interface {
	// CreateShipment создаёт доставку и возвращает её идентификатор.
	CreateShipment(ctx context.Context, address Address, items []ShipmentItem) (string, error)
}
