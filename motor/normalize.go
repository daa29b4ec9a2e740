/*
normalize.go - Backend response shapes -> canonical PricingResult

PURPOSE:
  The upstream API has grown several response shapes for the same premium:
  top-level totals, nested premium_breakdown objects, flat levy fields, and
  an underwriter features.pricing section whose base premium can disagree
  with the top-level one. This file collapses all of them into one result.

CORRECTION RULE:
  When features.pricing["{category}_{subcategory}"].base_premium is present
  and differs from the top-level base, the underwriter-specific value wins
  and the total is recomputed as base + training + pcf + stamp (0.25%/0.25%/
  KSh 40 derived when components are absent). This works around inconsistent
  backend payload assembly for per-underwriter rate overrides.

The normalizer is idempotent: feeding its own canonical output back through
produces the same total.
*/
package motor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/boma/quote-engine/money"
)

// =============================================================================
// RAW RESPONSE SHAPES
// =============================================================================

// RawBreakdown is a backend levy breakdown under either of its two names.
type RawBreakdown struct {
	Base         decimal.Decimal `json:"base"`
	BasePremium  decimal.Decimal `json:"base_premium"`
	TrainingLevy decimal.Decimal `json:"training_levy"`
	PCFLevy      decimal.Decimal `json:"pcf_levy"`
	StampDuty    decimal.Decimal `json:"stamp_duty"`
}

// baseValue tolerates both field names for the base component.
func (b *RawBreakdown) baseValue() decimal.Decimal {
	if !b.BasePremium.IsZero() {
		return b.BasePremium
	}
	return b.Base
}

// RawPricing is the permissive union of premium shapes the backend sends.
// Zero-valued amount fields read as absent.
type RawPricing struct {
	TotalPremium decimal.Decimal `json:"total_premium"`
	Premium      decimal.Decimal `json:"premium"`
	BasePremium  decimal.Decimal `json:"base_premium"`
	TrainingLevy decimal.Decimal `json:"training_levy"`
	PCFLevy      decimal.Decimal `json:"pcf_levy"`
	StampDuty    decimal.Decimal `json:"stamp_duty"`

	PremiumBreakdown *RawBreakdown `json:"premium_breakdown,omitempty"`
	Breakdown        *RawBreakdown `json:"breakdown,omitempty"`

	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`

	UnderwriterID   string `json:"underwriter_id,omitempty"`
	UnderwriterCode string `json:"underwriter_code,omitempty"`
	UnderwriterName string `json:"underwriter_name,omitempty"`
	MarketPosition  string `json:"market_position,omitempty"`

	Features *UnderwriterFeatures `json:"features,omitempty"`
	Meta     map[string]any       `json:"meta,omitempty"`
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizePricingResponse canonicalizes a backend premium payload.
// A nil response normalizes to an all-zero result.
func NormalizePricingResponse(resp *RawPricing) PricingResult {
	if resp == nil {
		return PricingResult{}
	}

	// Total preference order: total_premium > premium > base_premium.
	total := resp.TotalPremium
	if total.IsZero() {
		total = resp.Premium
	}
	if total.IsZero() {
		total = resp.BasePremium
	}
	base := resp.BasePremium

	// Underwriter-specific base premium wins over the top-level one.
	if resp.Features != nil && resp.Features.Pricing != nil && resp.Category != "" && resp.Subcategory != "" {
		key := fmt.Sprintf("%s_%s", resp.Category, resp.Subcategory)
		if node, ok := resp.Features.Pricing[key]; ok && !node.BasePremium.IsZero() {
			base = node.BasePremium
		}
	}

	// Recompute the total from the corrected base when the breakdown disagrees.
	if resp.PremiumBreakdown != nil && !base.Equal(resp.PremiumBreakdown.baseValue()) {
		training := resp.PremiumBreakdown.TrainingLevy
		if training.IsZero() {
			training = base.Mul(money.ITLRate)
		}
		pcf := resp.PremiumBreakdown.PCFLevy
		if pcf.IsZero() {
			pcf = base.Mul(money.PCFRate)
		}
		stamp := resp.PremiumBreakdown.StampDuty
		if stamp.IsZero() {
			stamp = money.StampDuty
		}
		total = base.Add(training).Add(pcf).Add(stamp)
	}

	// Flat-fields shape: all four components present, total is their sum.
	if !resp.BasePremium.IsZero() && !resp.TrainingLevy.IsZero() && !resp.PCFLevy.IsZero() && !resp.StampDuty.IsZero() {
		total = resp.BasePremium.Add(resp.TrainingLevy).Add(resp.PCFLevy).Add(resp.StampDuty)
	}

	breakdown := canonicalBreakdown(resp, base)

	return PricingResult{
		Premium:      money.Round2(total),
		TotalPremium: money.Round2(total),
		Breakdown:    breakdown,
		Meta:         resp.Meta,
		BasePremium:  base,
		TrainingLevy: resp.TrainingLevy,
		PCFLevy:      resp.PCFLevy,
		StampDuty:    resp.StampDuty,
	}
}

func canonicalBreakdown(resp *RawPricing, base decimal.Decimal) PremiumBreakdown {
	if resp.Breakdown != nil {
		return PremiumBreakdown{
			Base:         resp.Breakdown.baseValue(),
			TrainingLevy: resp.Breakdown.TrainingLevy,
			PCFLevy:      resp.Breakdown.PCFLevy,
			StampDuty:    resp.Breakdown.StampDuty,
		}
	}
	if resp.PremiumBreakdown != nil {
		return PremiumBreakdown{
			Base:         resp.PremiumBreakdown.baseValue(),
			TrainingLevy: resp.PremiumBreakdown.TrainingLevy,
			PCFLevy:      resp.PremiumBreakdown.PCFLevy,
			StampDuty:    resp.PremiumBreakdown.StampDuty,
		}
	}
	return PremiumBreakdown{
		Base:         base,
		TrainingLevy: resp.TrainingLevy,
		PCFLevy:      resp.PCFLevy,
		StampDuty:    resp.StampDuty,
	}
}

// RawFromResult re-wraps a canonical result in the flat response shape,
// mostly useful for verifying normalizer idempotency.
func RawFromResult(r PricingResult) *RawPricing {
	return &RawPricing{
		TotalPremium: r.TotalPremium,
		BasePremium:  r.BasePremium,
		TrainingLevy: r.TrainingLevy,
		PCFLevy:      r.PCFLevy,
		StampDuty:    r.StampDuty,
	}
}
