package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	specnock "github.com/specnock/specnock"
	"github.com/specnock/specnock/internal/models"
)

const itemsSpec = `
openapi: 3.0.3
info:
  title: Items API
  version: 1.0.0
paths:
  /items/{id}:
    get:
      responses:
        '200':
          description: OK
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: string
                    format: uuid
                  name:
                    type: string
`

func setupRouter(t *testing.T) (*Router, *specnock.Repository) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "items.yaml")
	if err := os.WriteFile(path, []byte(itemsSpec), 0644); err != nil {
		t.Fatalf("Failed to write spec file: %v", err)
	}

	repo := specnock.New(specnock.WithLogger(log.New(io.Discard, "", 0)))
	err := repo.Initialize([]specnock.Endpoint{
		{BaseURL: "https://api.example.com", Specs: []string{path}},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	return NewRouter(repo), repo
}

func doRequest(t *testing.T, router *Router, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/_api/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var state models.State
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("Failed to parse state: %v", err)
	}
	if state.SpecCount != 1 {
		t.Errorf("Expected 1 spec, got %d", state.SpecCount)
	}
	if state.ActiveIntercepts != 0 {
		t.Errorf("Expected no active intercepts, got %d", state.ActiveIntercepts)
	}
	if len(state.Endpoints) != 1 {
		t.Errorf("Expected 1 endpoint, got %d", len(state.Endpoints))
	}
}

func TestListSpecs(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/_api/specs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var specs []models.SpecInfo
	if err := json.Unmarshal(w.Body.Bytes(), &specs); err != nil {
		t.Fatalf("Failed to parse specs: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("Expected 1 spec, got %d", len(specs))
	}
	if specs[0].Title != "Items API" {
		t.Errorf("Expected title 'Items API', got %s", specs[0].Title)
	}
	if specs[0].Endpoint != "api.example.com" {
		t.Errorf("Expected endpoint api.example.com, got %s", specs[0].Endpoint)
	}
}

func TestMatch(t *testing.T) {
	router, repo := setupRouter(t)

	body, _ := json.Marshal(models.RequestDetails{
		URL:    "https://api.example.com/items/42",
		Method: "GET",
	})

	w := doRequest(t, router, http.MethodPost, "/_api/match", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var trace models.Trace
	if err := json.Unmarshal(w.Body.Bytes(), &trace); err != nil {
		t.Fatalf("Failed to parse trace: %v", err)
	}
	if trace.Outcome != models.OutcomeIntercepted {
		t.Errorf("Expected intercepted outcome, got %s", trace.Outcome)
	}
	if trace.Template != "/items/{id}" {
		t.Errorf("Expected template /items/{id}, got %s", trace.Template)
	}

	// Dry run must not install anything
	if got := len(repo.Intercepts()); got != 0 {
		t.Errorf("Expected no intercepts after dry run, got %d", got)
	}
}

func TestMatch_MissingFields(t *testing.T) {
	router, _ := setupRouter(t)

	body, _ := json.Marshal(models.RequestDetails{URL: "https://api.example.com/items/42"})

	w := doRequest(t, router, http.MethodPost, "/_api/match", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing method, got %d", w.Code)
	}
}

func TestRestore(t *testing.T) {
	router, repo := setupRouter(t)

	err := repo.ActivateForRequest(specnock.RequestDetails{
		URL:    "https://api.example.com/items/42",
		Method: "GET",
	})
	if err != nil {
		t.Fatalf("ActivateForRequest failed: %v", err)
	}
	if len(repo.Intercepts()) != 1 {
		t.Fatalf("Expected 1 intercept before restore")
	}

	w := doRequest(t, router, http.MethodPost, "/_api/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(repo.Intercepts()) != 0 {
		t.Errorf("Expected no intercepts after restore, got %d", len(repo.Intercepts()))
	}
}

func TestListTraces(t *testing.T) {
	router, repo := setupRouter(t)

	_ = repo.ActivateForRequest(specnock.RequestDetails{
		URL:    "https://api.example.com/items/42",
		Method: "GET",
	})
	_ = repo.ActivateForRequest(specnock.RequestDetails{
		URL:    "https://api.example.com/unknown",
		Method: "GET",
	})

	w := doRequest(t, router, http.MethodGet, "/_api/traces?outcome=intercepted", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var traces []models.Trace
	if err := json.Unmarshal(w.Body.Bytes(), &traces); err != nil {
		t.Fatalf("Failed to parse traces: %v", err)
	}
	if len(traces) != 1 {
		t.Fatalf("Expected 1 intercepted trace, got %d", len(traces))
	}
	if traces[0].Outcome != models.OutcomeIntercepted {
		t.Errorf("Expected intercepted outcome, got %s", traces[0].Outcome)
	}
}

func TestGetStats(t *testing.T) {
	router, repo := setupRouter(t)

	_ = repo.ActivateForRequest(specnock.RequestDetails{
		URL:    "https://api.example.com/items/42",
		Method: "GET",
	})

	w := doRequest(t, router, http.MethodGet, "/_api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var stats models.GlobalStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to parse stats: %v", err)
	}
	if stats.TotalIntercepts != 1 {
		t.Errorf("Expected 1 intercept, got %d", stats.TotalIntercepts)
	}
}
