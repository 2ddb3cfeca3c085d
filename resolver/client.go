// Package resolver provides an HTTP client for the external medication
// name resolver service. The browsing core never calls it; the data
// validation harness uses it to spot-check record names against the
// RxNorm vocabulary.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rxpricedb/rxprice-api/logging"
)

// DefaultTimeout bounds one resolver round-trip.
const DefaultTimeout = 15 * time.Second

// ResolveRequest asks the resolver to link free text to an rxcui.
type ResolveRequest struct {
	Text                string `json:"text"`
	RouteHint           string `json:"route_hint,omitempty"`
	FormHint            string `json:"form_hint,omitempty"`
	Debug               bool   `json:"debug,omitempty"`
	AllowIngredientOnly bool   `json:"allow_ingredient_only,omitempty"`
}

// Candidate is one scored alternative returned in debug mode.
type Candidate struct {
	Rxcui      string  `json:"rxcui"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ResolveResult is the resolver's answer for one text.
type ResolveResult struct {
	Resolved       bool        `json:"resolved"`
	Rxcui          string      `json:"rxcui,omitempty"`
	Confidence     float64     `json:"confidence,omitempty"`
	MatchedSynonym string      `json:"matched_synonym,omitempty"`
	MatchType      string      `json:"match_type,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	TopCandidates  []Candidate `json:"top_candidates,omitempty"`
}

// BatchItem is one entry of a batch resolve request.
type BatchItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	RouteHint string `json:"route_hint,omitempty"`
	FormHint  string `json:"form_hint,omitempty"`
}

type batchRequest struct {
	Items []BatchItem `json:"items"`
	Debug bool        `json:"debug,omitempty"`
}

// BatchResult pairs a resolve result with the item id that produced it.
type BatchResult struct {
	ID string `json:"id"`
	ResolveResult
}

type batchResponse struct {
	Results []BatchResult `json:"results"`
}

// Client calls the resolver service. Failures are returned to the
// caller; there are no automatic retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a resolver client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Resolve links one free-text medication name to an rxcui.
func (c *Client) Resolve(ctx context.Context, req ResolveRequest) (*ResolveResult, error) {
	var result ResolveResult
	if err := c.post(ctx, "/resolve", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResolveBatch resolves several texts in one round-trip. Results carry
// the ids of the items that produced them.
func (c *Client) ResolveBatch(ctx context.Context, items []BatchItem, debug bool) ([]BatchResult, error) {
	var resp batchResponse
	if err := c.post(ctx, "/resolve/batch", batchRequest{Items: items, Debug: debug}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode resolver request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build resolver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resolver request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resolver returned %d: %s", resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode resolver response: %w", err)
	}

	logging.Debug("Resolver call completed", "path", path, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
