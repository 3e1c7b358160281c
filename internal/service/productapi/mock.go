package productapi

import (
	"context"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

// MockService — конфигурируемая заглушка ProductService для тестов
// и локальной разработки без внешнего каталога.
type MockService struct {
	Snapshot domain.ProductSnapshot
	Err      error

	Calls int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	price, err := domain.MoneyFromString("19.99")
	if err != nil {
		panic(err)
	}
	return &MockService{
		Snapshot: domain.ProductSnapshot{
			SKU:   "MOCK-SKU-1",
			Name:  "Mock Product",
			Price: price,
		},
	}
}

// GetProduct возвращает настроенный снимок и считает вызовы.
func (m *MockService) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	m.Calls++
	if m.Err != nil {
		return domain.ProductSnapshot{}, m.Err
	}
	snapshot := m.Snapshot
	if snapshot.ID == "" {
		snapshot.ID = productID
	}
	return snapshot, nil
}

var _ domain.ProductService = (*MockService)(nil)
