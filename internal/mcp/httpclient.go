package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/shealth2tcx/internal/models"
)

// HTTPClient implements DataSource by calling the shealth2tcx REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but the
// ledger lives on another machine.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is sent as X-API-Key when non-empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get returns the response body, or nil with no error on 404.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func limitParams(limit int) url.Values {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}

func (c *HTTPClient) ListExports(ctx context.Context, limit int) ([]models.ExportRecord, error) {
	body, err := c.get(ctx, "/api/v1/exports", limitParams(limit))
	if err != nil {
		return nil, err
	}

	var recs []models.ExportRecord
	if body == nil {
		return recs, nil
	}
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("httpclient: decode exports: %w", err)
	}
	return recs, nil
}

func (c *HTTPClient) GetExport(ctx context.Context, activityID string) (*models.ExportRecord, error) {
	body, err := c.get(ctx, "/api/v1/exports/"+url.PathEscape(activityID), nil)
	if err != nil || body == nil {
		return nil, err
	}

	var rec models.ExportRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("httpclient: decode export: %w", err)
	}
	return &rec, nil
}

func (c *HTTPClient) ListRuns(ctx context.Context, limit int) ([]models.ConversionRun, error) {
	body, err := c.get(ctx, "/api/v1/runs", limitParams(limit))
	if err != nil {
		return nil, err
	}

	var runs []models.ConversionRun
	if body == nil {
		return runs, nil
	}
	if err := json.Unmarshal(body, &runs); err != nil {
		return nil, fmt.Errorf("httpclient: decode runs: %w", err)
	}
	return runs, nil
}
