package quickbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://quickbooks.api.intuit.com"

// Config controls how the QuickBooks client behaves.
type Config struct {
	BaseURL     string
	RealmID     string
	AccessToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client wraps the QuickBooks Online REST endpoints the platform syncs to.
// Requests are not retried: the caller owns retry policy for sync jobs.
type Client struct {
	baseURL     string
	realmID     string
	accessToken string
	httpClient  *http.Client
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.RealmID) == "" {
		return nil, errors.New("quickbooks: realm id is required")
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("quickbooks: access token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:     baseURL,
		realmID:     cfg.RealmID,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
	}, nil
}

// APIError carries a non-2xx QuickBooks response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickbooks: api error: status %d: %s", e.StatusCode, e.Body)
}

// SyncResult identifies the created QuickBooks entity.
type SyncResult struct {
	ID        string `json:"Id"`
	DocNumber string `json:"DocNumber"`
	SyncToken string `json:"SyncToken"`
}

// CreateInvoice pushes an invoice into QuickBooks.
func (c *Client) CreateInvoice(ctx context.Context, doc Document) (*SyncResult, error) {
	return c.createEntity(ctx, "invoice", "Invoice", doc)
}

// CreateEstimate pushes an estimate into QuickBooks.
func (c *Client) CreateEstimate(ctx context.Context, doc Document) (*SyncResult, error) {
	return c.createEntity(ctx, "estimate", "Estimate", doc)
}

func (c *Client) createEntity(ctx context.Context, path, wrapper string, doc Document) (*SyncResult, error) {
	if len(doc.LineItems) == 0 {
		return nil, errors.New("quickbooks: at least one line item required")
	}
	if strings.TrimSpace(doc.CustomerName) == "" {
		return nil, errors.New("quickbooks: customer name required")
	}

	body, err := json.Marshal(toQuickBooks(doc))
	if err != nil {
		return nil, fmt.Errorf("quickbooks: marshal %s: %w", path, err)
	}

	url := fmt.Sprintf("%s/v3/company/%s/%s", c.baseURL, c.realmID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("quickbooks: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	// Responses wrap the entity under its type name.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("quickbooks: decode response: %w", err)
	}
	raw, ok := envelope[wrapper]
	if !ok {
		return nil, fmt.Errorf("quickbooks: response missing %s entity", wrapper)
	}
	var result SyncResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("quickbooks: decode %s: %w", wrapper, err)
	}
	return &result, nil
}
