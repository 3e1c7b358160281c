package shipmentapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// MockService — конфигурируемая заглушка ShipmentService для тестов
// и локальной разработки. Позволяет имитировать отказ доставки.
type MockService struct {
	ShipmentID string // пустая строка — генерировать на каждый вызов
	Err        error

	Calls       int
	LastAddress domain.Address
	LastItems   []domain.ShipmentItem
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{}
}

// CreateShipment возвращает настроенный результат, запоминает последний
// запрос и считает вызовы.
func (m *MockService) CreateShipment(ctx context.Context, address domain.Address, items []domain.ShipmentItem) (string, error) {
	m.Calls++
	m.LastAddress = address
	m.LastItems = items
	if m.Err != nil {
		return "", m.Err
	}
	if m.ShipmentID != "" {
		return m.ShipmentID, nil
	}
	return "shp_" + uuid.NewString(), nil
}

var _ domain.ShipmentService = (*MockService)(nil)
