package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processRequestBody(t *testing.T, payload any) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestProcessHandlerMissingTranscript(t *testing.T) {
	h := NewProcessHandler(ProcessConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/vapi/process", processRequestBody(t, map[string]string{"callId": "call-1"}))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestProcessHandlerInvalidJSON(t *testing.T) {
	h := NewProcessHandler(ProcessConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/vapi/process", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessHandlerExtractsAndValidates(t *testing.T) {
	h := NewProcessHandler(ProcessConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/vapi/process", processRequestBody(t, map[string]string{
		"transcript": janeDoeTranscript,
		"callId":     "call-42",
	}))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "call-42", resp.CallID)
	assert.Equal(t, "Jane Doe", resp.Data.CustomerName)
	assert.Equal(t, "jane@example.com", resp.Data.CustomerEmail)
	assert.Contains(t, resp.Data.ServiceRequested, "water heater repair")
	assert.True(t, resp.Validation.IsValid)
	assert.Empty(t, resp.Validation.Errors)
}

func TestProcessHandlerValidationErrorsAreData(t *testing.T) {
	h := NewProcessHandler(ProcessConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/vapi/process", processRequestBody(t, map[string]string{
		"transcript": "um yes hello",
	}))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Validation.IsValid)
	assert.Contains(t, resp.Validation.Errors, "Customer name is required")
	assert.Contains(t, resp.Validation.Errors, "Service type could not be determined")
}
