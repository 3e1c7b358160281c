package shipmentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client — HTTP-клиент внешнего сервиса доставки. Сервис ненадёжен:
// любая ошибка вызова трактуется вызывающей сагой как отказ доставки.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиент сервиса доставки.
func NewClient(baseURL string, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.New().WithField("component", "shipment-api")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

type createShipmentRequest struct {
	Address domain.Address        `json:"address"`
	Items   []domain.ShipmentItem `json:"items"`
}

type createShipmentResponse struct {
	ID string `json:"id"`
}

// CreateShipment создаёт заявку на доставку и возвращает её идентификатор.
func (c *Client) CreateShipment(ctx context.Context, address domain.Address, items []domain.ShipmentItem) (string, error) {
	body, err := json.Marshal(createShipmentRequest{Address: address, Items: items})
	if err != nil {
		return "", fmt.Errorf("marshal shipment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shipments", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build shipment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call shipment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.WithField("status", resp.StatusCode).Warn("shipment service returned unexpected status")
		return "", fmt.Errorf("shipment service returned status %d", resp.StatusCode)
	}

	var decoded createShipmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode shipment response: %w", err)
	}
	if decoded.ID == "" {
		return "", fmt.Errorf("shipment service returned empty shipment id")
	}
	return decoded.ID, nil
}

var _ domain.ShipmentService = (*Client)(nil)
