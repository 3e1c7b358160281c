package shipmentapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

func TestCreateShipment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/shipments" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var decoded struct {
			Address domain.Address        `json:"address"`
			Items   []domain.ShipmentItem `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(decoded.Items) != 1 || decoded.Items[0].SKU != "SKU-42" {
			t.Errorf("unexpected items: %+v", decoded.Items)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "shp_123"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	shipmentID, err := client.CreateShipment(context.Background(), domain.Address{
		Line1:   "1 Main St",
		City:    "Springfield",
		Country: "US",
	}, []domain.ShipmentItem{{SKU: "SKU-42", Quantity: 2}})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	if shipmentID != "shp_123" {
		t.Errorf("expected shipment id shp_123, got %s", shipmentID)
	}
}

func TestCreateShipmentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.CreateShipment(context.Background(), domain.Address{}, nil)
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestCreateShipmentEmptyID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.CreateShipment(context.Background(), domain.Address{}, nil)
	if err == nil {
		t.Fatal("expected error for empty shipment id")
	}
}
