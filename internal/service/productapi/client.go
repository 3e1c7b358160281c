package productapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

const defaultTimeout = 5 * time.Second

// Client — HTTP-клиент внешнего сервиса каталога.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиент сервиса каталога.
func NewClient(baseURL string, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.New().WithField("component", "product-api")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// GetProduct возвращает снимок товара или NotFoundError.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products/"+productID, nil)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("build product request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("call product service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ProductSnapshot{}, domain.NewNotFoundError("Product", productID)
	case resp.StatusCode != http.StatusOK:
		c.logger.WithFields(log.Fields{
			"product_id": productID,
			"status":     resp.StatusCode,
		}).Warn("product service returned unexpected status")
		return domain.ProductSnapshot{}, fmt.Errorf("product service returned status %d", resp.StatusCode)
	}

	var snapshot domain.ProductSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("decode product response: %w", err)
	}
	return snapshot, nil
}

var _ domain.ProductService = (*Client)(nil)
