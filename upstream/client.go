/*
Package upstream is the HTTP client for the quotation backend.

PURPOSE:
  Wraps the backend's motor pricing endpoints behind typed methods. The
  client does transport only: request encoding, response decoding, and
  error classification. Request transformation and response normalization
  live in the pricing service, not here.

ENDPOINTS:
  POST /motor/premium          single-underwriter premium calculation
  POST /motor/compare          batch comparison across underwriters
  GET  /motor/underwriters     underwriter directory (optionally filtered)
  POST /motor/quotations       quotation submission

ERROR CLASSIFICATION:
  Non-2xx responses become *APIError carrying the HTTP status and the
  backend's message. Callers use IsServerError to decide whether the
  per-underwriter fallback path applies.

SEE ALSO:
  - pricing/service.go: the client's only consumer
  - motor/normalize.go: shape tolerance for backend payloads
*/
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/boma/quote-engine/motor"
)

// =============================================================================
// ERRORS
// =============================================================================

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("upstream: %d: %s", e.Status, e.Message)
}

// IsServerError reports whether err is a backend-side failure (HTTP 5xx).
// These are the failures the comparison fallback path recovers from.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the quotation backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom
// transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a backend client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// PREMIUM CALCULATION
// =============================================================================

// CalculateMotorPremium calculates a premium with the backend's default
// underwriter selection.
func (c *Client) CalculateMotorPremium(ctx context.Context, req motor.PricingRequest) (*motor.RawPricing, error) {
	var raw motor.RawPricing
	if err := c.post(ctx, "/motor/premium", req, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// CalculateForUnderwriter calculates a premium pinned to one underwriter.
// This is the building block of the comparison fallback path.
func (c *Client) CalculateForUnderwriter(ctx context.Context, req motor.PricingRequest, underwriterID string) (*motor.RawPricing, error) {
	pinned := req
	pinned.UnderwriterCode = underwriterID

	var raw motor.RawPricing
	if err := c.post(ctx, "/motor/premium", pinned, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// =============================================================================
// COMPARISON
// =============================================================================

// ComparisonEntry is one underwriter's result in a batch comparison. The
// backend sometimes nests the pricing under "result" and sometimes inlines
// it; Pricing resolves either shape.
type ComparisonEntry struct {
	motor.RawPricing
	Result *motor.RawPricing `json:"result,omitempty"`
}

// Pricing returns the entry's pricing payload regardless of nesting.
func (e *ComparisonEntry) Pricing() *motor.RawPricing {
	if e.Result != nil {
		return e.Result
	}
	return &e.RawPricing
}

// ComparisonResponse is the backend's batch comparison payload.
type ComparisonResponse struct {
	Entries []ComparisonEntry `json:"results"`
}

type compareRequest struct {
	motor.PricingRequest
	UnderwriterIDs []string `json:"underwriter_ids,omitempty"`
}

// CompareMotorPricing runs a batch comparison. An empty underwriterIDs
// slice asks the backend to compare across its full panel.
func (c *Client) CompareMotorPricing(ctx context.Context, req motor.PricingRequest, underwriterIDs []string) (*ComparisonResponse, error) {
	body := compareRequest{PricingRequest: req, UnderwriterIDs: underwriterIDs}

	var resp ComparisonResponse
	if err := c.post(ctx, "/motor/compare", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// UNDERWRITERS
// =============================================================================

// GetUnderwriters lists underwriters, optionally filtered by category and
// subcategory codes. The backend has shipped both a bare array and a
// wrapped object for this endpoint; both shapes are accepted.
func (c *Client) GetUnderwriters(ctx context.Context, categoryCode, subcategoryCode string) ([]motor.Underwriter, error) {
	path := "/motor/underwriters"
	sep := "?"
	if categoryCode != "" {
		path += sep + "category=" + categoryCode
		sep = "&"
	}
	if subcategoryCode != "" {
		path += sep + "subcategory=" + subcategoryCode
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var bare []motor.Underwriter
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Underwriters []motor.Underwriter `json:"underwriters"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("upstream: failed to decode underwriter list: %w", err)
	}
	return wrapped.Underwriters, nil
}

// =============================================================================
// QUOTATION SUBMISSION
// =============================================================================

// QuotationAck is the backend's acknowledgement of a submitted quotation.
type QuotationAck struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// SubmitQuotation submits a quotation payload and returns the backend's
// reference.
func (c *Client) SubmitQuotation(ctx context.Context, payload any) (*QuotationAck, error) {
	var ack QuotationAck
	if err := c.post(ctx, "/motor/quotations", payload, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("upstream: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("upstream: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: failed to build request: %w", err)
	}

	var body json.RawMessage
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("upstream: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("upstream: failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Code: payload.Code, Message: msg}
}
