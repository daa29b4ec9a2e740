/*
Package motor contains the motor-insurance quotation domain:
the add-on catalog and calculation engine, the canonical request transform,
response normalization across backend shapes, and subcategory code mapping.

PURPOSE:
  The upstream underwriting API owns the actual rating tables; this package
  owns the client-side mirror of that logic: which add-ons apply to a vehicle,
  what each costs under a given underwriter, and how heterogeneous backend
  payloads collapse into one canonical premium result.

KEY CONCEPTS IN THIS FILE (types.go):
  - AddonDefinition: immutable catalog entry for an optional coverage
  - Fields: free-form form data bag (vehicle details, pricing inputs)
  - VehicleData: typed view over the vehicle fields used by calculations
  - Underwriter: per-session underwriter record with rate overrides
  - AddonCalculationResult / TotalAddonsCalculation: derived, never mutated

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all premium arithmetic
  2. Purity: calculation functions cannot fail; absent values price as zero
     only after the transform layer has had its chance to reject them
  3. Immutability: catalog entries and results are recomputed, not patched

SEE ALSO:
  - catalog.go:     the standard add-on table
  - calculation.go: premium computation and clamping
  - transform.go:   UI field aliases -> canonical backend request
  - normalize.go:   backend response shapes -> canonical result
*/
package motor

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ADD-ON CATALOG TYPES
// =============================================================================

// PricingType determines how an add-on's base rate is interpreted.
type PricingType string

const (
	PricingPercentage PricingType = "PERCENTAGE" // rate is a decimal fraction of the base value
	PricingFixed      PricingType = "FIXED"      // rate is a flat KSh amount
)

// CalculationBase names the vehicle value an add-on is priced against.
type CalculationBase string

const (
	BaseSumInsured       CalculationBase = "sum_insured"
	BaseWindscreenValue  CalculationBase = "windscreen_value"
	BaseRadioCassette    CalculationBase = "radio_cassette_value"
	BaseAccessoriesValue CalculationBase = "vehicle_accessories_value"
	BaseFixed            CalculationBase = "fixed"
)

// AddonCategory groups add-ons for summary reporting.
type AddonCategory string

const (
	CategoryProtection   AddonCategory = "protection"
	CategoryBenefits     AddonCategory = "benefits"
	CategoryAccessories  AddonCategory = "accessories"
	CategoryCompensation AddonCategory = "compensation"
	CategoryOther        AddonCategory = "other"
)

// AddonDefinition is an immutable catalog entry for an optional coverage.
// Rates may be overridden per-underwriter at calculation time; the catalog
// entry itself never changes.
type AddonDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	PricingType PricingType `json:"pricing_type"`

	// BaseRate is a decimal fraction for PERCENTAGE pricing (0.0025 = 0.25%)
	// or a flat KSh amount for FIXED pricing.
	BaseRate decimal.Decimal `json:"base_rate"`

	// MinimumPremium raises any positive premium below it. Zero means none.
	MinimumPremium decimal.Decimal `json:"minimum_premium,omitempty"`

	// MaximumLimit caps the premium. Zero means none.
	MaximumLimit decimal.Decimal `json:"maximum_limit,omitempty"`

	CalculationBase CalculationBase `json:"calculation_base"`

	// Conditional add-ons only apply when the base value exceeds the threshold.
	Conditional           bool            `json:"conditional,omitempty"`
	MinimumValueThreshold decimal.Decimal `json:"minimum_value_threshold,omitempty"`

	ApplicableTo []string      `json:"applicable_to"`
	Category     AddonCategory `json:"category"`
}

// =============================================================================
// FORM DATA
// =============================================================================

// Fields is the free-form bag of form values owned by the flow state.
// Keys follow the backend's snake_case names, with legacy camelCase aliases
// resolved by the transform layer.
type Fields map[string]any

// Merge returns a new bag with the patch applied. The receiver is not mutated;
// flow state snapshots rely on bags being replaced, never edited in place.
func (f Fields) Merge(patch Fields) Fields {
	out := make(Fields, len(f)+len(patch))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	return Fields{}.Merge(f)
}

// VehicleData is the typed view over the vehicle fields the add-on engine
// reads. Absent values are zero.
type VehicleData struct {
	SumInsured         decimal.Decimal
	WindscreenValue    decimal.Decimal
	RadioCassetteValue decimal.Decimal
	AccessoriesValue   decimal.Decimal
	Tonnage            decimal.Decimal
	PassengerCapacity  int
	RegistrationNumber string
	Make               string
	Model              string
	YearOfManufacture  int
}

// ValueFor returns the vehicle value an add-on is priced against.
func (v VehicleData) ValueFor(base CalculationBase) decimal.Decimal {
	switch base {
	case BaseSumInsured:
		return v.SumInsured
	case BaseWindscreenValue:
		return v.WindscreenValue
	case BaseRadioCassette:
		return v.RadioCassetteValue
	case BaseAccessoriesValue:
		return v.AccessoriesValue
	default:
		return decimal.Zero
	}
}

// =============================================================================
// UNDERWRITERS
// =============================================================================

// UnderwriterFeatures carries per-underwriter rate overrides and, in some
// backend payloads, a pricing section keyed by "{category}_{subcategory}".
type UnderwriterFeatures struct {
	AddonRates      map[string]decimal.Decimal    `json:"addon_rates,omitempty"`
	MinimumPremiums map[string]decimal.Decimal    `json:"minimum_premiums,omitempty"`
	Pricing         map[string]SubcategoryPricing `json:"pricing,omitempty"`
}

// SubcategoryPricing is the underwriter-specific pricing node nested under
// features.pricing. Only the base premium matters to the normalizer.
type SubcategoryPricing struct {
	BasePremium decimal.Decimal `json:"base_premium"`
}

// Underwriter is constructed per API response and cached for the session;
// it is never persisted beyond the cache TTL.
type Underwriter struct {
	ID             string              `json:"underwriter_id,omitempty"`
	Code           string              `json:"underwriter_code"`
	Name           string              `json:"underwriter_name"`
	MarketPosition string              `json:"market_position,omitempty"`
	Features       UnderwriterFeatures `json:"features,omitempty"`
}

// AddonRate returns the underwriter's override for an add-on, if any.
func (u *Underwriter) AddonRate(addonID string) (decimal.Decimal, bool) {
	if u == nil {
		return decimal.Zero, false
	}
	r, ok := u.Features.AddonRates[addonID]
	return r, ok
}

// MinimumPremium returns the underwriter's minimum override for an add-on.
func (u *Underwriter) MinimumPremium(addonID string) (decimal.Decimal, bool) {
	if u == nil {
		return decimal.Zero, false
	}
	m, ok := u.Features.MinimumPremiums[addonID]
	return m, ok
}

// =============================================================================
// CALCULATION RESULTS
// =============================================================================

// AddonCalculationResult is the outcome of pricing a single add-on.
// Recomputed on every input change.
type AddonCalculationResult struct {
	AddonID            string          `json:"addon_id"`
	AddonName          string          `json:"addon_name"`
	BaseValue          decimal.Decimal `json:"base_value"`
	RateApplied        decimal.Decimal `json:"rate_applied"`
	OriginalPremium    decimal.Decimal `json:"original_premium"`
	CalculatedPremium  int64           `json:"calculated_premium"`
	CalculationDetails string          `json:"calculation_details"`
	IsApplicable       bool            `json:"is_applicable"`
	IsConditional      bool            `json:"is_conditional"`
	Category           AddonCategory   `json:"category"`
}

// TotalAddonsCalculation aggregates a selection of add-ons.
// Summary always carries the three canonical buckets; any further category
// observed in the selection is keyed as well, so nothing is silently dropped.
type TotalAddonsCalculation struct {
	Total           int64                    `json:"total"`
	Breakdown       []AddonCalculationResult `json:"breakdown"`
	Summary         map[AddonCategory]int64  `json:"summary"`
	UnderwriterName string                   `json:"underwriter_name"`
	Timestamp       time.Time                `json:"calculation_timestamp"`
}

// =============================================================================
// CANONICAL REQUEST / RESULT
// =============================================================================

// AddonFlags nests the boolean/numeric add-on selections in a pricing request.
type AddonFlags struct {
	ExcessProtector *bool `json:"excess_protector,omitempty"`
	PVT             *bool `json:"pvt,omitempty"`
	CoverDays       *int  `json:"cover_days,omitempty"`
}

// PricingRequest is the canonical post-transform request shape sent upstream.
// Constructed fresh per calculation call.
type PricingRequest struct {
	Category            string      `json:"category,omitempty"`
	Subcategory         string      `json:"subcategory,omitempty"`
	SubcategoryCode     string      `json:"subcategory_code,omitempty"`
	CoverType           string      `json:"cover_type,omitempty"`
	Underwriter         string      `json:"underwriter,omitempty"`
	UnderwriterCode     string      `json:"underwriter_code,omitempty"`
	VehicleRegistration string      `json:"vehicle_registration,omitempty"`
	CoverStartDate      string      `json:"cover_start_date,omitempty"`
	SumInsured          float64     `json:"sum_insured,omitempty"`
	VehicleAge          *int        `json:"vehicle_age,omitempty"`
	VehicleYear         int         `json:"vehicle_year,omitempty"`
	VehicleMake         string      `json:"vehicle_make,omitempty"`
	VehicleModel        string      `json:"vehicle_model,omitempty"`
	Tonnage             *float64    `json:"tonnage,omitempty"`
	PassengerCount      *int        `json:"passenger_count,omitempty"`
	AddOns              *AddonFlags `json:"add_ons,omitempty"`
	CustomerFirstName   string      `json:"customer_first_name,omitempty"`
	CustomerLastName    string      `json:"customer_last_name,omitempty"`
	CustomerPhone       string      `json:"customer_phone,omitempty"`
	CustomerEmail       string      `json:"customer_email,omitempty"`
	DurationDays        int         `json:"duration_days"`
	PolicyTermMonths    int         `json:"policy_term_months,omitempty"`
}

// PremiumBreakdown is the canonical levy breakdown.
type PremiumBreakdown struct {
	Base         decimal.Decimal `json:"base"`
	TrainingLevy decimal.Decimal `json:"training_levy"`
	PCFLevy      decimal.Decimal `json:"pcf_levy"`
	StampDuty    decimal.Decimal `json:"stamp_duty"`
}

// PricingResult is the canonical post-normalize premium.
// Invariant: TotalPremium == Breakdown.Base + TrainingLevy + PCFLevy + StampDuty
// once the normalizer has reconciled inconsistent backend components.
type PricingResult struct {
	Premium      decimal.Decimal  `json:"premium"`
	TotalPremium decimal.Decimal  `json:"total_premium"`
	Breakdown    PremiumBreakdown `json:"breakdown"`
	Meta         map[string]any   `json:"meta,omitempty"`

	// Individual components, when the backend supplied them flat.
	BasePremium  decimal.Decimal `json:"base_premium"`
	TrainingLevy decimal.Decimal `json:"training_levy"`
	PCFLevy      decimal.Decimal `json:"pcf_levy"`
	StampDuty    decimal.Decimal `json:"stamp_duty"`
}
