/*
dto.go - Request/response data structures for the quotation API

PURPOSE:
  Defines the JSON shapes the mobile client consumes. These types decouple
  the internal domain model from the external API contract. Domain types
  use decimal internally; DTOs convert to plain numbers at the boundary.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

LEGACY KEYS:
  Premium payloads carry the total under three keys (premium,
  total_premium, totalPremium). Deployed client versions read different
  ones; all three stay until the oldest client is retired.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/boma/quote-engine/flow"
	"github.com/boma/quote-engine/motor"
	"github.com/boma/quote-engine/pricing"
)

// =============================================================================
// REQUESTS
// =============================================================================

// SelectionRequest sets the category/subcategory/product choice.
type SelectionRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	ProductType string `json:"product_type"`
}

// FieldsRequest patches a form with arbitrary key/value fields.
type FieldsRequest struct {
	Fields map[string]any `json:"fields"`
}

// AddonSelectionRequest replaces the add-on selection.
type AddonSelectionRequest struct {
	AddonIDs []string `json:"addon_ids"`
}

// SelectUnderwriterRequest picks an underwriter from the loaded panel.
type SelectUnderwriterRequest struct {
	UnderwriterCode string `json:"underwriter_code"`
}

// StepRequest moves the wizard to a step.
type StepRequest struct {
	Step int `json:"step"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SessionResponse carries a newly created session ID.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// BreakdownDTO is the levy breakdown in plain numbers.
type BreakdownDTO struct {
	Base         float64 `json:"base"`
	TrainingLevy float64 `json:"training_levy"`
	PCFLevy      float64 `json:"pcf_levy"`
	StampDuty    float64 `json:"stamp_duty"`
}

// PremiumDTO is a normalized premium for the client.
type PremiumDTO struct {
	Premium        float64      `json:"premium"`
	TotalPremium   float64      `json:"total_premium"`
	TotalPremiumCC float64      `json:"totalPremium"`
	Breakdown      BreakdownDTO `json:"breakdown"`
}

// ComparisonDTO is one ranked underwriter quote.
type ComparisonDTO struct {
	UnderwriterID   string       `json:"underwriter_id,omitempty"`
	UnderwriterCode string       `json:"underwriter_code"`
	UnderwriterName string       `json:"underwriter_name"`
	MarketPosition  string       `json:"market_position,omitempty"`
	Premium         float64      `json:"premium"`
	TotalPremium    float64      `json:"total_premium"`
	TotalPremiumCC  float64      `json:"totalPremium"`
	Breakdown       BreakdownDTO `json:"breakdown"`
	Rating          string       `json:"rating,omitempty"`
	Savings         float64      `json:"savings"`
}

// UnderwriterDTO is a panel entry.
type UnderwriterDTO struct {
	ID             string `json:"underwriter_id,omitempty"`
	Code           string `json:"underwriter_code"`
	Name           string `json:"underwriter_name"`
	MarketPosition string `json:"market_position,omitempty"`
}

// AddonDTO is a catalog entry.
type AddonDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	PricingType     string  `json:"pricing_type"`
	CalculationBase string  `json:"calculation_base"`
	BaseRate        float64 `json:"base_rate"`
	MinimumPremium  float64 `json:"minimum_premium,omitempty"`
	MaximumLimit    float64 `json:"maximum_limit,omitempty"`
	Conditional     bool    `json:"conditional"`
	Category        string  `json:"category"`
}

// AddonResultDTO is one calculated add-on line.
type AddonResultDTO struct {
	AddonID            string  `json:"addon_id"`
	AddonName          string  `json:"addon_name"`
	CalculatedPremium  int64   `json:"calculated_premium"`
	CalculationDetails string  `json:"calculation_details"`
	IsApplicable       bool    `json:"is_applicable"`
	Category           string  `json:"category"`
	BaseValue          float64 `json:"base_value,omitempty"`
}

// AddonTotalsDTO is the priced add-on selection.
type AddonTotalsDTO struct {
	Total           int64            `json:"total"`
	Breakdown       []AddonResultDTO `json:"breakdown"`
	Summary         map[string]int64 `json:"summary"`
	UnderwriterName string           `json:"underwriter_name"`
	Timestamp       string           `json:"calculation_timestamp"`
}

// StateDTO is the journey state as the client sees it.
type StateDTO struct {
	CurrentStep         int               `json:"current_step"`
	SelectedCategory    string            `json:"selected_category,omitempty"`
	SelectedSubcategory string            `json:"selected_subcategory,omitempty"`
	ProductType         string            `json:"product_type,omitempty"`
	VehicleDetails      map[string]any    `json:"vehicle_details"`
	PricingInputs       map[string]any    `json:"pricing_inputs"`
	ClientDetails       map[string]any    `json:"client_details"`
	SelectedAddonIDs    []string          `json:"selected_addon_ids,omitempty"`
	AddonTotals         *AddonTotalsDTO   `json:"addon_totals,omitempty"`
	Underwriters        []UnderwriterDTO  `json:"underwriters,omitempty"`
	SelectedUnderwriter *UnderwriterDTO   `json:"selected_underwriter,omitempty"`
	Premium             *PremiumDTO       `json:"premium,omitempty"`
	Comparison          []ComparisonDTO   `json:"comparison,omitempty"`
	Validation          map[string]string `json:"validation,omitempty"`
	Errors              flow.Errors       `json:"errors"`
	Loading             flow.Loading      `json:"loading"`
	CanUndo             bool              `json:"can_undo"`
	CanRedo             bool              `json:"can_redo"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toBreakdownDTO(b motor.PremiumBreakdown) BreakdownDTO {
	return BreakdownDTO{
		Base:         f64(b.Base),
		TrainingLevy: f64(b.TrainingLevy),
		PCFLevy:      f64(b.PCFLevy),
		StampDuty:    f64(b.StampDuty),
	}
}

func toPremiumDTO(r *motor.PricingResult) *PremiumDTO {
	if r == nil {
		return nil
	}
	total := f64(r.TotalPremium)
	return &PremiumDTO{
		Premium:        total,
		TotalPremium:   total,
		TotalPremiumCC: total,
		Breakdown:      toBreakdownDTO(r.Breakdown),
	}
}

func toComparisonDTOs(records []pricing.ComparisonRecord) []ComparisonDTO {
	if len(records) == 0 {
		return nil
	}
	dtos := make([]ComparisonDTO, len(records))
	for i, rec := range records {
		total := f64(rec.TotalPremium)
		dtos[i] = ComparisonDTO{
			UnderwriterID:   rec.UnderwriterID,
			UnderwriterCode: rec.UnderwriterCode,
			UnderwriterName: rec.UnderwriterName,
			MarketPosition:  rec.MarketPosition,
			Premium:         total,
			TotalPremium:    total,
			TotalPremiumCC:  total,
			Breakdown:       toBreakdownDTO(rec.Breakdown),
			Rating:          rec.Rating,
			Savings:         f64(rec.Savings),
		}
	}
	return dtos
}

func toUnderwriterDTO(u motor.Underwriter) UnderwriterDTO {
	return UnderwriterDTO{
		ID:             u.ID,
		Code:           u.Code,
		Name:           u.Name,
		MarketPosition: u.MarketPosition,
	}
}

func toAddonDTO(a motor.AddonDefinition) AddonDTO {
	return AddonDTO{
		ID:              a.ID,
		Name:            a.Name,
		Description:     a.Description,
		PricingType:     string(a.PricingType),
		CalculationBase: string(a.CalculationBase),
		BaseRate:        f64(a.BaseRate),
		MinimumPremium:  f64(a.MinimumPremium),
		MaximumLimit:    f64(a.MaximumLimit),
		Conditional:     a.Conditional,
		Category:        string(a.Category),
	}
}

func toAddonTotalsDTO(t *motor.TotalAddonsCalculation) *AddonTotalsDTO {
	if t == nil {
		return nil
	}
	breakdown := make([]AddonResultDTO, len(t.Breakdown))
	for i, b := range t.Breakdown {
		breakdown[i] = AddonResultDTO{
			AddonID:            b.AddonID,
			AddonName:          b.AddonName,
			CalculatedPremium:  b.CalculatedPremium,
			CalculationDetails: b.CalculationDetails,
			IsApplicable:       b.IsApplicable,
			Category:           string(b.Category),
			BaseValue:          f64(b.BaseValue),
		}
	}
	summary := make(map[string]int64, len(t.Summary))
	for k, v := range t.Summary {
		summary[string(k)] = v
	}
	return &AddonTotalsDTO{
		Total:           t.Total,
		Breakdown:       breakdown,
		Summary:         summary,
		UnderwriterName: t.UnderwriterName,
		Timestamp:       t.Timestamp.Format(time.RFC3339),
	}
}

func toStateDTO(st flow.State) StateDTO {
	dto := StateDTO{
		CurrentStep:         st.CurrentStep,
		SelectedCategory:    st.SelectedCategory,
		SelectedSubcategory: st.SelectedSubcategory,
		ProductType:         st.ProductType,
		VehicleDetails:      st.VehicleDetails,
		PricingInputs:       st.PricingInputs,
		ClientDetails:       st.ClientDetails,
		SelectedAddonIDs:    st.SelectedAddonIDs,
		AddonTotals:         toAddonTotalsDTO(st.AddonTotals),
		Premium:             toPremiumDTO(st.CalculatedPremium),
		Comparison:          toComparisonDTOs(st.Comparison),
		Validation:          st.Validation,
		Errors:              st.Errors,
		Loading:             st.Loading,
		CanUndo:             st.CanUndo(),
		CanRedo:             st.CanRedo(),
	}
	for _, u := range st.Underwriters {
		dto.Underwriters = append(dto.Underwriters, toUnderwriterDTO(u))
	}
	if st.SelectedUnderwriter != nil {
		u := toUnderwriterDTO(*st.SelectedUnderwriter)
		dto.SelectedUnderwriter = &u
	}
	return dto
}
