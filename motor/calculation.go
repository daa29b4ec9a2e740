/*
calculation.go - Add-on premium computation and clamping

PURPOSE:
  Prices a single add-on against a vehicle, applying underwriter rate
  overrides, minimum/maximum clamps, and conditional applicability; then
  aggregates selections into totals with per-category summaries and compares
  a selection across underwriters.

CLAMP ORDER (matters):
  1. catalog minimum premium (raise, only when premium > 0)
  2. catalog maximum limit (cap)
  3. underwriter minimum override (raise, only when premium > 0)

APPLICABILITY STATES:
  not applicable:    conditional threshold unmet (premium stays 0)
  applicable-zero:   priced to zero (e.g. zero rate), excluded from totals
  applicable-priced: positive premium after clamping

These functions are pure; missing vehicle values price as zero. Input
rejection is the transform/validation layer's job.
*/
package motor

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boma/quote-engine/money"
)

var oneHundred = decimal.NewFromInt(100)

// CalculateAddonPremium prices one add-on for a vehicle under an optional
// underwriter. Never fails; inapplicable add-ons come back with a zero
// premium and an explanatory detail string.
func CalculateAddonPremium(addon AddonDefinition, vehicle VehicleData, underwriter *Underwriter) AddonCalculationResult {
	rate := addon.BaseRate
	if override, ok := underwriter.AddonRate(addon.ID); ok {
		rate = override
	}

	baseValue := decimal.Zero
	premium := decimal.Zero
	details := ""

	switch addon.CalculationBase {
	case BaseSumInsured:
		baseValue = vehicle.SumInsured
		premium = baseValue.Mul(rate)
		details = fmt.Sprintf("%s%% × %s", rate.Mul(oneHundred).StringFixed(2), money.FormatKES(baseValue))

	case BaseWindscreenValue, BaseRadioCassette, BaseAccessoriesValue:
		baseValue = vehicle.ValueFor(addon.CalculationBase)
		if baseValue.GreaterThan(addon.MinimumValueThreshold) {
			premium = baseValue.Mul(rate)
			details = fmt.Sprintf("%s%% × %s", rate.Mul(oneHundred).StringFixed(1), money.FormatKES(baseValue))
		} else {
			details = fmt.Sprintf("Value below threshold (%s)", money.FormatKES(addon.MinimumValueThreshold))
		}

	case BaseFixed:
		premium = rate
		details = "Fixed amount"

	default:
		details = "Unknown calculation base"
	}

	original := premium

	// Catalog minimum: raise, never introduce a premium where there was none.
	if addon.MinimumPremium.IsPositive() && premium.IsPositive() && premium.LessThan(addon.MinimumPremium) {
		premium = addon.MinimumPremium
		details += fmt.Sprintf(", minimum %s applied", money.FormatKES(addon.MinimumPremium))
	}

	// Catalog maximum: cap.
	if addon.MaximumLimit.IsPositive() && premium.GreaterThan(addon.MaximumLimit) {
		premium = addon.MaximumLimit
		details += fmt.Sprintf(", capped at %s", money.FormatKES(addon.MaximumLimit))
	}

	// Underwriter minimum runs after the catalog clamps.
	if uwMin, ok := underwriter.MinimumPremium(addon.ID); ok && uwMin.IsPositive() && premium.IsPositive() && premium.LessThan(uwMin) {
		premium = uwMin
		details += fmt.Sprintf(", underwriter minimum %s applied", money.FormatKES(uwMin))
	}

	rounded := money.RoundWhole(premium).IntPart()

	return AddonCalculationResult{
		AddonID:            addon.ID,
		AddonName:          addon.Name,
		BaseValue:          baseValue,
		RateApplied:        rate,
		OriginalPremium:    original,
		CalculatedPremium:  rounded,
		CalculationDetails: details,
		IsApplicable:       premium.IsPositive(),
		IsConditional:      addon.Conditional,
		Category:           addon.Category,
	}
}

// CalculateTotalAddons aggregates a selection. Only applicable entries with a
// positive premium contribute to the total and breakdown. The summary always
// carries the three canonical buckets; other categories are keyed as observed.
func CalculateTotalAddons(selected []AddonDefinition, vehicle VehicleData, underwriter *Underwriter) TotalAddonsCalculation {
	summary := map[AddonCategory]int64{
		CategoryProtection:  0,
		CategoryBenefits:    0,
		CategoryAccessories: 0,
	}

	out := TotalAddonsCalculation{
		Breakdown:       []AddonCalculationResult{},
		Summary:         summary,
		UnderwriterName: "Default",
		Timestamp:       time.Now().UTC(),
	}
	if underwriter != nil && underwriter.Name != "" {
		out.UnderwriterName = underwriter.Name
	}
	if len(selected) == 0 {
		return out
	}

	var total int64
	for _, addon := range selected {
		calc := CalculateAddonPremium(addon, vehicle, underwriter)
		if !calc.IsApplicable || calc.CalculatedPremium <= 0 {
			continue
		}
		total += calc.CalculatedPremium
		out.Breakdown = append(out.Breakdown, calc)
		summary[calc.Category] += calc.CalculatedPremium
	}

	out.Total = total
	return out
}

// UnderwriterAddonQuote is one underwriter's total for a selection.
type UnderwriterAddonQuote struct {
	UnderwriterCode string `json:"underwriter_code"`
	UnderwriterName string `json:"underwriter_name"`
	TotalAddonsCalculation
}

// AddonComparison ranks a selection's cost across underwriters.
type AddonComparison struct {
	Comparisons      []UnderwriterAddonQuote `json:"comparisons"`
	LowestTotal      int64                   `json:"lowest_total"`
	HighestTotal     int64                   `json:"highest_total"`
	SavingsAvailable int64                   `json:"savings_available"`
}

// CompareAddonPricing runs the total calculation once per underwriter and
// reports the spread over the non-zero totals.
func CompareAddonPricing(selected []AddonDefinition, vehicle VehicleData, underwriters []Underwriter) AddonComparison {
	out := AddonComparison{Comparisons: []UnderwriterAddonQuote{}}
	if len(underwriters) == 0 {
		return out
	}

	for i := range underwriters {
		uw := underwriters[i]
		calc := CalculateTotalAddons(selected, vehicle, &uw)
		out.Comparisons = append(out.Comparisons, UnderwriterAddonQuote{
			UnderwriterCode:        uw.Code,
			UnderwriterName:        uw.Name,
			TotalAddonsCalculation: calc,
		})
	}

	var totals []int64
	for _, c := range out.Comparisons {
		if c.Total > 0 {
			totals = append(totals, c.Total)
		}
	}
	if len(totals) > 0 {
		sort.Slice(totals, func(i, j int) bool { return totals[i] < totals[j] })
		out.LowestTotal = totals[0]
		out.HighestTotal = totals[len(totals)-1]
		out.SavingsAvailable = out.HighestTotal - out.LowestTotal
	}
	return out
}
