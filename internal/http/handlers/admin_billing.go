package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldpilot/fieldops-ai-platform/internal/quickbooks"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

// BillingSyncer pushes documents into the accounting backend.
type BillingSyncer interface {
	CreateInvoice(ctx context.Context, doc quickbooks.Document) (*quickbooks.SyncResult, error)
	CreateEstimate(ctx context.Context, doc quickbooks.Document) (*quickbooks.SyncResult, error)
}

// AdminBillingHandler lets the owner push an invoice or estimate for a
// finished job into QuickBooks.
type AdminBillingHandler struct {
	syncer BillingSyncer
	logger *logging.Logger
}

type AdminBillingConfig struct {
	Syncer BillingSyncer
	Logger *logging.Logger
}

func NewAdminBillingHandler(cfg AdminBillingConfig) *AdminBillingHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AdminBillingHandler{
		syncer: cfg.Syncer,
		logger: cfg.Logger,
	}
}

// CreateInvoice handles POST /admin/invoices.
func (h *AdminBillingHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "invoice", h.syncer.CreateInvoice)
}

// CreateEstimate handles POST /admin/estimates.
func (h *AdminBillingHandler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "estimate", h.syncer.CreateEstimate)
}

func (h *AdminBillingHandler) create(w http.ResponseWriter, r *http.Request, kind string, push func(context.Context, quickbooks.Document) (*quickbooks.SyncResult, error)) {
	var doc quickbooks.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := push(r.Context(), doc)
	if err != nil {
		var apiErr *quickbooks.APIError
		if errors.As(err, &apiErr) {
			h.logger.Error("quickbooks rejected document",
				"kind", kind,
				"status", apiErr.StatusCode,
				"body", apiErr.Body,
			)
			writeAPIError(w, http.StatusBadGateway, "quickbooks rejected the "+kind)
			return
		}
		h.logger.Warn("invalid billing document", "kind", kind, "error", err)
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("billing document created",
		"kind", kind,
		"id", result.ID,
		"doc_number", result.DocNumber,
	)
	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Message: kind + " created",
		Data:    result,
	})
}
