/*
catalog.go - Standard add-on catalog for comprehensive motor cover

PURPOSE:
  The static table of optional coverages a comprehensive motor policy can
  carry. Rates and minimums here are the brokerage-wide defaults; individual
  underwriters override them through Underwriter.Features at calculation time.

CATALOG RULES:
  - PERCENTAGE add-ons price as base_rate x calculation base value
  - FIXED add-ons price as a flat amount (base_rate is the amount)
  - Conditional add-ons only apply when the base value exceeds the threshold
    (windscreen/radio above KSh 30,000; accessories above zero)

SEE ALSO:
  - calculation.go: how these entries are priced and clamped
*/
package motor

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CoverComprehensive is the only cover type the standard catalog applies to.
const CoverComprehensive = "COMPREHENSIVE"

// NormalizeCoverType maps comprehensive-like product type strings, including
// subcategory codes such as "PRIVATE_COMPREHENSIVE", onto the canonical
// catalog cover type. Other values pass through upper-cased.
func NormalizeCoverType(productType string) string {
	pt := strings.ToUpper(productType)
	if strings.Contains(pt, "COMPREHENSIVE") || strings.Contains(pt, "COMP") {
		return CoverComprehensive
	}
	return pt
}

var (
	ratePercentQuarter = decimal.NewFromFloat(0.0025) // 0.25%
	rateTenPercent     = decimal.NewFromFloat(0.10)   // 10%

	standardAddons = []AddonDefinition{
		{
			ID:              "excess_protector",
			Name:            "Excess Protector",
			Description:     "Covers the excess amount in case of a claim",
			PricingType:     PricingPercentage,
			BaseRate:        ratePercentQuarter,
			MinimumPremium:  decimal.NewFromInt(3000),
			CalculationBase: BaseSumInsured,
			ApplicableTo:    []string{CoverComprehensive},
			Category:        CategoryProtection,
		},
		{
			ID:              "political_violence_terrorism",
			Name:            "Political Violence & Terrorism (PVT)",
			Description:     "Covers damage from political violence and terrorism",
			PricingType:     PricingPercentage,
			BaseRate:        ratePercentQuarter,
			MinimumPremium:  decimal.NewFromInt(2500),
			CalculationBase: BaseSumInsured,
			ApplicableTo:    []string{CoverComprehensive},
			Category:        CategoryProtection,
		},
		{
			ID:              "loss_of_use",
			Name:            "Loss of Use",
			Description:     "Daily compensation when vehicle is being repaired",
			PricingType:     PricingFixed,
			BaseRate:        decimal.NewFromInt(3000),
			MaximumLimit:    decimal.NewFromInt(30000),
			CalculationBase: BaseFixed,
			ApplicableTo:    []string{CoverComprehensive},
			Category:        CategoryBenefits,
		},
		{
			ID:                    "windscreen_cover",
			Name:                  "Windscreen Cover",
			Description:           "Extended windscreen replacement coverage",
			PricingType:           PricingPercentage,
			BaseRate:              rateTenPercent,
			MinimumValueThreshold: decimal.NewFromInt(30000),
			CalculationBase:       BaseWindscreenValue,
			Conditional:           true,
			ApplicableTo:          []string{CoverComprehensive},
			Category:              CategoryAccessories,
		},
		{
			ID:                    "radio_cover",
			Name:                  "Radio/Cassette Cover",
			Description:           "Audio system replacement coverage",
			PricingType:           PricingPercentage,
			BaseRate:              rateTenPercent,
			MinimumValueThreshold: decimal.NewFromInt(30000),
			CalculationBase:       BaseRadioCassette,
			Conditional:           true,
			ApplicableTo:          []string{CoverComprehensive},
			Category:              CategoryAccessories,
		},
		{
			ID:          "accessories_cover",
			Name:        "Other Accessories Cover",
			Description: "Covers additional fitted accessories",
			PricingType: PricingPercentage,
			// Fallback rate; underwriters usually override this one.
			BaseRate:        rateTenPercent,
			CalculationBase: BaseAccessoriesValue,
			Conditional:     true,
			ApplicableTo:    []string{CoverComprehensive},
			Category:        CategoryAccessories,
		},
	}
)

// StandardAddons returns the static catalog. Callers receive a copy;
// the catalog itself is never mutated.
func StandardAddons() []AddonDefinition {
	out := make([]AddonDefinition, len(standardAddons))
	copy(out, standardAddons)
	return out
}

// AddonByID looks up a catalog entry.
func AddonByID(id string) (AddonDefinition, bool) {
	for _, a := range standardAddons {
		if a.ID == id {
			return a, true
		}
	}
	return AddonDefinition{}, false
}

// ApplicableAddons filters the catalog by cover type, then drops conditional
// entries whose vehicle value does not exceed their threshold.
func ApplicableAddons(coverType string, vehicle VehicleData) []AddonDefinition {
	var out []AddonDefinition
	for _, addon := range StandardAddons() {
		if !appliesTo(addon, coverType) {
			continue
		}
		if addon.Conditional {
			value := vehicle.ValueFor(addon.CalculationBase)
			if !value.GreaterThan(addon.MinimumValueThreshold) {
				continue
			}
		}
		out = append(out, addon)
	}
	return out
}

func appliesTo(addon AddonDefinition, coverType string) bool {
	for _, ct := range addon.ApplicableTo {
		if ct == coverType {
			return true
		}
	}
	return false
}

// UnderwriterAddonRates exposes an underwriter's override maps, defaulting
// to empty maps so callers can index without nil checks.
func UnderwriterAddonRates(u *Underwriter) UnderwriterFeatures {
	f := UnderwriterFeatures{
		AddonRates:      map[string]decimal.Decimal{},
		MinimumPremiums: map[string]decimal.Decimal{},
	}
	if u == nil {
		return f
	}
	if u.Features.AddonRates != nil {
		f.AddonRates = u.Features.AddonRates
	}
	if u.Features.MinimumPremiums != nil {
		f.MinimumPremiums = u.Features.MinimumPremiums
	}
	return f
}
