package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth_AllDependenciesHealthy_Returns200(t *testing.T) {
	h := NewHealthHandler(&stubPinger{}, &stubPinger{})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestHealth_DatabaseDown_Returns503(t *testing.T) {
	h := NewHealthHandler(&stubPinger{err: fmt.Errorf("connection refused")}, &stubPinger{})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %q, want degraded", body["status"])
	}
	if body["database"] != "unavailable" {
		t.Errorf("database = %q, want unavailable", body["database"])
	}
	if body["redis"] != "ok" {
		t.Errorf("redis = %q, want ok", body["redis"])
	}
}

func TestHealth_RedisDown_Returns503(t *testing.T) {
	h := NewHealthHandler(&stubPinger{}, &stubPinger{err: fmt.Errorf("connection refused")})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
