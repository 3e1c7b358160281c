package customerapi

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

// Client — HTTP-клиент внешнего сервиса клиентов.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиент сервиса клиентов.
func NewClient(baseURL string, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.New().WithField("component", "customer-api")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// GetCustomer возвращает снимок клиента или NotFoundError.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (domain.CustomerSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/customers/"+customerID, nil)
	if err != nil {
		return domain.CustomerSnapshot{}, fmt.Errorf("build customer request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.CustomerSnapshot{}, fmt.Errorf("call customer service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.CustomerSnapshot{}, domain.NewNotFoundError("Customer", customerID)
	case resp.StatusCode != http.StatusOK:
		c.logger.WithFields(log.Fields{
			"customer_id": customerID,
			"status":      resp.StatusCode,
		}).Warn("customer service returned unexpected status")
		return domain.CustomerSnapshot{}, fmt.Errorf("customer service returned status %d", resp.StatusCode)
	}

	var snapshot domain.CustomerSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return domain.CustomerSnapshot{}, fmt.Errorf("decode customer response: %w", err)
	}
	return snapshot, nil
}

var _ domain.CustomerService = (*Client)(nil)
