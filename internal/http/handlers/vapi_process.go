package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fieldpilot/fieldops-ai-platform/internal/extraction"
	observemetrics "github.com/fieldpilot/fieldops-ai-platform/internal/observability/metrics"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

// ProcessHandler runs extraction and validation over an ad-hoc transcript,
// without touching call state. Useful for replaying stored transcripts and
// tuning the heuristics.
type ProcessHandler struct {
	extractor *extraction.Extractor
	logger    *logging.Logger
	metrics   *observemetrics.IntakeMetrics
}

type ProcessConfig struct {
	Extractor *extraction.Extractor
	Logger    *logging.Logger
	Metrics   *observemetrics.IntakeMetrics
}

func NewProcessHandler(cfg ProcessConfig) *ProcessHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extraction.NewExtractor()
	}
	return &ProcessHandler{
		extractor: extractor,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

type processRequest struct {
	Transcript string `json:"transcript"`
	CallID     string `json:"callId,omitempty"`
}

type processResponse struct {
	Success    bool                        `json:"success"`
	Data       extraction.ExtractedData    `json:"data"`
	Validation extraction.ValidationResult `json:"validation"`
	CallID     string                      `json:"callId,omitempty"`
}

// Handle processes POST /api/vapi/process.
func (h *ProcessHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeAPIError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	data := h.extractor.Extract(r.Context(), req.Transcript)
	validation := extraction.Validate(data)
	if h.metrics != nil {
		h.metrics.ObserveExtraction(validation.IsValid)
	}
	h.logger.Info("transcript processed",
		"call_id", req.CallID, "valid", validation.IsValid, "errors", len(validation.Errors))

	writeJSON(w, http.StatusOK, processResponse{
		Success:    true,
		Data:       data,
		Validation: validation,
		CallID:     req.CallID,
	})
}
