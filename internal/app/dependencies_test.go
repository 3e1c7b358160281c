package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/storage/memory"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger.WithField("component", "app-test")
}

func TestNewDependenciesMemoryStorage(t *testing.T) {
	cfg := Config{Storage: StorageMemory}

	deps, err := NewDependencies(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	if deps.Store == nil {
		t.Fatal("expected store to be initialized")
	}
	if _, ok := deps.Store.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", deps.Store)
	}
	if deps.Credits == nil || deps.Promos == nil || deps.Saga == nil {
		t.Error("expected all services to be wired")
	}
	if deps.Health == nil {
		t.Error("expected health handler to be wired")
	}
	if deps.KafkaProducer != nil {
		t.Error("kafka producer must be nil without brokers")
	}
}

func TestBuildMuxServesAPIAndProbes(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{Storage: StorageMemory}, testLogger())
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	server := httptest.NewServer(buildMux(deps))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", resp.StatusCode)
	}
	var healthBody map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&healthBody); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if healthBody["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", healthBody["status"])
	}

	resp, err = http.Get(server.URL + "/livez")
	if err != nil {
		t.Fatalf("GET /livez: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /livez, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", resp.StatusCode)
	}

	// API доступно на том же mux.
	resp, err = http.Post(server.URL+"/api/credits/grant", "application/json",
		strings.NewReader(`{"customerId": "", "amount": "0", "reason": ""}`))
	if err != nil {
		t.Fatalf("POST /api/credits/grant: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 from grant with empty fields, got %d", resp.StatusCode)
	}
}
