package productapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/credits/internal/domain"
)

func TestGetProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/prod-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "prod-1",
			"sku": "SKU-42",
			"name": "Widget",
			"price": "19.99"
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	snapshot, err := client.GetProduct(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if snapshot.SKU != "SKU-42" {
		t.Errorf("expected sku SKU-42, got %s", snapshot.SKU)
	}
	if snapshot.Price.String() != "19.99" {
		t.Errorf("expected price 19.99, got %s", snapshot.Price)
	}
}

func TestGetProductNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.GetProduct(context.Background(), "missing")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
