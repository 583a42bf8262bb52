package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldpilot/fieldops-ai-platform/internal/appointments"
	"github.com/fieldpilot/fieldops-ai-platform/internal/calls"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

// AdminIntakeHandler is the owner's review surface: calls that need a
// follow-up, recent appointments, individual call records.
type AdminIntakeHandler struct {
	calls        calls.Repository
	appointments appointments.Repository
	logger       *logging.Logger
}

type AdminIntakeConfig struct {
	Calls        calls.Repository
	Appointments appointments.Repository
	Logger       *logging.Logger
}

func NewAdminIntakeHandler(cfg AdminIntakeConfig) *AdminIntakeHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AdminIntakeHandler{
		calls:        cfg.Calls,
		appointments: cfg.Appointments,
		logger:       cfg.Logger,
	}
}

// ListCalls handles GET /admin/calls?status=&limit=&offset=.
func (h *AdminIntakeHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	filter := calls.ListFilter{
		Status: calls.CallStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	records, err := h.calls.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list calls failed", "error", err)
		writeAPIError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"calls": records,
		"count": len(records),
	})
}

// GetCall handles GET /admin/calls/{callID}, where callID is the provider's
// call id.
func (h *AdminIntakeHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	record, err := h.calls.GetByProviderID(r.Context(), callID)
	if errors.Is(err, calls.ErrCallNotFound) {
		writeAPIError(w, http.StatusNotFound, "call not found")
		return
	}
	if err != nil {
		h.logger.Error("get call failed", "error", err, "call_id", callID)
		writeAPIError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListAppointments handles GET /admin/appointments?status=&limit=&offset=.
func (h *AdminIntakeHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	filter := appointments.ListFilter{
		Status: appointments.AppointmentStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	records, err := h.appointments.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list appointments failed", "error", err)
		writeAPIError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": records,
		"count":        len(records),
	})
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
