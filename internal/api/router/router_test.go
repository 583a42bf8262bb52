package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldpilot/fieldops-ai-platform/internal/appointments"
	"github.com/fieldpilot/fieldops-ai-platform/internal/calls"
	"github.com/fieldpilot/fieldops-ai-platform/internal/http/handlers"
)

func newTestRouter() http.Handler {
	return New(&Config{
		Process: handlers.NewProcessHandler(handlers.ProcessConfig{}),
		AdminIntake: handlers.NewAdminIntakeHandler(handlers.AdminIntakeConfig{
			Calls:        calls.NewInMemoryRepository(),
			Appointments: appointments.NewInMemoryRepository(),
		}),
		AdminAuthSecret: "secret",
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterAdminRequiresJWT(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin/calls", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestRouterProcessEndpointRouted(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/vapi/process", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// Empty body is a client error, not a routing miss.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
