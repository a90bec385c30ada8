package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveHealth(t *testing.T, checks map[string]HealthCheck) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	NewHealthHandler(checks)(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return w, resp
}

func TestHealthHandler_AllHealthy_Returns200(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	w, resp := serveHealth(t, map[string]HealthCheck{"postgres": ok, "redis": ok})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q, want ok", resp.Status)
	}
	if resp.Checks["postgres"] != "ok" || resp.Checks["redis"] != "ok" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestHealthHandler_OneFailing_Returns503(t *testing.T) {
	w, resp := serveHealth(t, map[string]HealthCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"mongo":    func(ctx context.Context) error { return errors.New("no reachable servers") },
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if resp.Status != "unavailable" {
		t.Errorf("status field = %q, want unavailable", resp.Status)
	}
	if resp.Checks["mongo"] != "unavailable" || resp.Checks["postgres"] != "ok" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestHealthHandler_NoChecks_Returns200(t *testing.T) {
	w, resp := serveHealth(t, nil)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp.Checks != nil {
		t.Errorf("checks = %v, want omitted", resp.Checks)
	}
}

func TestHealthHandler_CheckReceivesDeadline(t *testing.T) {
	var hasDeadline bool
	serveHealth(t, map[string]HealthCheck{
		"postgres": func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		},
	})

	if !hasDeadline {
		t.Error("health check context should carry a deadline")
	}
}
