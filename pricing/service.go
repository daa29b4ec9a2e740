/*
Package pricing orchestrates premium calculation and underwriter comparison.

PURPOSE:
  The service is the seam between form fields and the backend: it transforms
  inputs into the canonical request, calls the backend, and normalizes the
  response into consistent totals. Comparison adds ranking and a fallback
  path for batch failures.

KEY CONCEPTS:
  Calculation:  transform -> backend -> normalize. No retry; the caller
                decides when to recalculate.
  Comparison:   one batch call when possible. When the backend's batch
                endpoint fails server-side, the service falls back to
                parallel per-underwriter calculations and returns whatever
                subset succeeded.
  Ranking:      records sorted ascending by total premium, stable so equal
                totals keep backend order. Savings is measured against the
                most expensive quote in the set.

DESIGN PRINCIPLES:
  - The backend is an interface; tests use fakes, production uses
    upstream.Client.
  - Partial comparison results are better than none. A single underwriter
    outage must not empty the comparison screen.

SEE ALSO:
  - motor/transform.go:  request building
  - motor/normalize.go:  response canonicalization
  - upstream/client.go:  the production backend
  - flow/controller.go:  the consumer driving debounce and caching
*/
package pricing

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/boma/quote-engine/motor"
	"github.com/boma/quote-engine/upstream"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the slice of the upstream client the service depends on.
type Backend interface {
	CalculateMotorPremium(ctx context.Context, req motor.PricingRequest) (*motor.RawPricing, error)
	CalculateForUnderwriter(ctx context.Context, req motor.PricingRequest, underwriterCode string) (*motor.RawPricing, error)
	CompareMotorPricing(ctx context.Context, req motor.PricingRequest, underwriterCodes []string) (*upstream.ComparisonResponse, error)
	GetUnderwriters(ctx context.Context, categoryCode, subcategoryCode string) ([]motor.Underwriter, error)
	SubmitQuotation(ctx context.Context, payload any) (*upstream.QuotationAck, error)
}

var _ Backend = (*upstream.Client)(nil)

// =============================================================================
// SERVICE
// =============================================================================

// Service turns form fields into priced, ranked quotes.
type Service struct {
	backend       Backend
	transformOpts []motor.TransformOption
}

// Option configures a Service.
type Option func(*Service)

// WithTransformOptions sets the options applied to every request transform.
func WithTransformOptions(opts ...motor.TransformOption) Option {
	return func(s *Service) { s.transformOpts = opts }
}

// New creates a pricing service over the given backend.
func New(backend Backend, opts ...Option) *Service {
	s := &Service{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// CALCULATION
// =============================================================================

// CalculatePremium prices one request end to end: transform the form
// fields, call the backend, normalize the response.
func (s *Service) CalculatePremium(ctx context.Context, productType string, inputs motor.Fields) (*motor.PricingResult, error) {
	req, err := motor.TransformPricingRequest(productType, inputs, s.transformOpts...)
	if err != nil {
		return nil, fmt.Errorf("pricing: invalid inputs: %w", err)
	}

	raw, err := s.backend.CalculateMotorPremium(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("pricing: premium calculation failed: %w", err)
	}

	result := motor.NormalizePricingResponse(raw)
	return &result, nil
}

// =============================================================================
// COMPARISON
// =============================================================================

// ComparisonRecord is one underwriter's ranked quote.
type ComparisonRecord struct {
	UnderwriterID   string
	UnderwriterCode string
	UnderwriterName string
	MarketPosition  string
	Features        *motor.UnderwriterFeatures
	Premium         decimal.Decimal
	TotalPremium    decimal.Decimal
	Breakdown       motor.PremiumBreakdown
	Rating          string
	Savings         decimal.Decimal
	Raw             *motor.RawPricing
}

// ComparePricing compares underwriters for the given inputs. The batch
// endpoint is tried first; on a batch failure the service prices each
// underwriter individually in parallel and keeps the subset that
// succeeded. With an explicit underwriter list any batch error triggers
// the fallback, transport failures and client errors included. Without
// one, only a server-side failure is worth the extra panel lookup.
func (s *Service) ComparePricing(ctx context.Context, productType string, inputs motor.Fields, underwriterCodes []string) ([]ComparisonRecord, error) {
	req, err := motor.TransformPricingRequest(productType, inputs, s.transformOpts...)
	if err != nil {
		return nil, fmt.Errorf("pricing: invalid inputs: %w", err)
	}

	resp, err := s.backend.CompareMotorPricing(ctx, req, underwriterCodes)
	if err == nil {
		return rankEntries(resp.Entries), nil
	}
	if len(underwriterCodes) == 0 && !upstream.IsServerError(err) {
		return nil, fmt.Errorf("pricing: comparison failed: %w", err)
	}

	log.Printf("[Pricing] Batch comparison failed, falling back to per-underwriter pricing: %v", err)
	return s.compareIndividually(ctx, req, underwriterCodes)
}

// compareIndividually prices each underwriter with its own call. Failures
// are dropped; the comparison succeeds with whatever subset priced.
func (s *Service) compareIndividually(ctx context.Context, req motor.PricingRequest, underwriterCodes []string) ([]ComparisonRecord, error) {
	codes := underwriterCodes
	if len(codes) == 0 {
		uws, err := s.backend.GetUnderwriters(ctx, req.Category, req.SubcategoryCode)
		if err != nil {
			return nil, fmt.Errorf("pricing: comparison fallback could not list underwriters: %w", err)
		}
		for _, uw := range uws {
			codes = append(codes, uw.Code)
		}
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("pricing: no underwriters to compare")
	}

	var (
		mu      sync.Mutex
		entries []upstream.ComparisonEntry
		wg      sync.WaitGroup
	)

	for _, code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()

			raw, err := s.backend.CalculateForUnderwriter(ctx, req, code)
			if err != nil {
				log.Printf("[Pricing] Fallback pricing failed for %s: %v", code, err)
				return
			}
			if raw.UnderwriterCode == "" {
				raw.UnderwriterCode = code
			}

			mu.Lock()
			entries = append(entries, upstream.ComparisonEntry{RawPricing: *raw})
			mu.Unlock()
		}(code)
	}
	wg.Wait()

	if len(entries) == 0 {
		return nil, fmt.Errorf("pricing: all underwriters failed to price")
	}
	return rankEntries(entries), nil
}

// CompareUnderwritersBySubcategory compares the full panel for a backend
// subcategory code.
func (s *Service) CompareUnderwritersBySubcategory(ctx context.Context, subcategoryCode string, inputs motor.Fields) ([]ComparisonRecord, error) {
	withCode := inputs.Merge(motor.Fields{"subcategory_code": subcategoryCode})
	return s.ComparePricing(ctx, productTypeFromInputs(inputs), withCode, nil)
}

// CompareUnderwritersByCoverType resolves the subcategory code from a
// category and cover type, then compares. An unmapped combination still
// compares on the concatenation guess; the mapping error is logged, not
// fatal.
func (s *Service) CompareUnderwritersByCoverType(ctx context.Context, category, coverType string, inputs motor.Fields) ([]ComparisonRecord, error) {
	code, err := motor.SubcategoryCode(category, coverType)
	if err != nil {
		log.Printf("[Pricing] No subcategory mapping for %s/%s, using %s", category, coverType, code)
	}
	return s.CompareUnderwritersBySubcategory(ctx, code, inputs)
}

func productTypeFromInputs(inputs motor.Fields) string {
	for _, key := range []string{"product_type", "cover_type", "productType", "coverType"} {
		if v, ok := inputs[key].(string); ok && v != "" {
			return v
		}
	}
	return motor.CoverComprehensive
}

// =============================================================================
// RANKING
// =============================================================================

// rankEntries normalizes each entry and ranks the set by total premium,
// cheapest first. Savings compares each quote to the most expensive one.
func rankEntries(entries []upstream.ComparisonEntry) []ComparisonRecord {
	records := make([]ComparisonRecord, 0, len(entries))
	for i := range entries {
		raw := entries[i].Pricing()
		result := motor.NormalizePricingResponse(raw)

		rec := ComparisonRecord{
			UnderwriterID:   raw.UnderwriterID,
			UnderwriterCode: raw.UnderwriterCode,
			UnderwriterName: raw.UnderwriterName,
			MarketPosition:  raw.MarketPosition,
			Features:        raw.Features,
			Premium:         result.Premium,
			TotalPremium:    result.TotalPremium,
			Breakdown:       result.Breakdown,
			Raw:             raw,
		}
		// Identity can come from the wrapper when the pricing is nested.
		if rec.UnderwriterCode == "" {
			rec.UnderwriterCode = entries[i].RawPricing.UnderwriterCode
		}
		if rec.UnderwriterName == "" {
			rec.UnderwriterName = entries[i].RawPricing.UnderwriterName
		}
		if rec.UnderwriterID == "" {
			rec.UnderwriterID = entries[i].RawPricing.UnderwriterID
		}
		if rec.MarketPosition == "" {
			rec.MarketPosition = entries[i].RawPricing.MarketPosition
		}
		if rating, ok := raw.Meta["rating"].(string); ok {
			rec.Rating = rating
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TotalPremium.LessThan(records[j].TotalPremium)
	})

	if len(records) > 0 {
		highest := records[len(records)-1].TotalPremium
		for i := range records {
			records[i].Savings = highest.Sub(records[i].TotalPremium)
		}
	}
	return records
}

// =============================================================================
// PASSTHROUGHS
// =============================================================================

// Underwriters lists the backend's underwriter panel.
func (s *Service) Underwriters(ctx context.Context, categoryCode, subcategoryCode string) ([]motor.Underwriter, error) {
	uws, err := s.backend.GetUnderwriters(ctx, categoryCode, subcategoryCode)
	if err != nil {
		return nil, fmt.Errorf("pricing: underwriter list failed: %w", err)
	}
	return uws, nil
}

// SubmitQuotation forwards a composed quotation payload to the backend.
func (s *Service) SubmitQuotation(ctx context.Context, payload any) (*upstream.QuotationAck, error) {
	ack, err := s.backend.SubmitQuotation(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("pricing: quotation submission failed: %w", err)
	}
	return ack, nil
}
