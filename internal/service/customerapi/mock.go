package customerapi

import (
	"context"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// MockService — конфигурируемая заглушка CustomerService для тестов
// и локальной разработки без внешнего сервиса клиентов.
type MockService struct {
	Snapshot domain.CustomerSnapshot
	Err      error

	Calls int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{
		Snapshot: domain.CustomerSnapshot{
			Name:  "Mock Customer",
			Email: "mock.customer@example.com",
			ShippingAddress: domain.Address{
				Line1:      "1 Mock Street",
				City:       "Springfield",
				PostalCode: "12345",
				State:      "IL",
				Country:    "US",
			},
		},
	}
}

// GetCustomer возвращает настроенный снимок и считает вызовы.
// ID в снимке подменяется запрошенным, чтобы ответ выглядел консистентно.
func (m *MockService) GetCustomer(ctx context.Context, customerID string) (domain.CustomerSnapshot, error) {
	m.Calls++
	if m.Err != nil {
		return domain.CustomerSnapshot{}, m.Err
	}
	snapshot := m.Snapshot
	if snapshot.ID == "" {
		snapshot.ID = customerID
	}
	return snapshot, nil
}

var _ domain.CustomerService = (*MockService)(nil)
