package motor_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/quote-engine/motor"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustAddon(t *testing.T, id string) motor.AddonDefinition {
	t.Helper()
	addon, ok := motor.AddonByID(id)
	require.True(t, ok, "addon %s missing from catalog", id)
	return addon
}

func comprehensiveVehicle() motor.VehicleData {
	return motor.VehicleData{
		SumInsured:         dec("1000000"),
		WindscreenValue:    dec("50000"),
		RadioCassetteValue: dec("40000"),
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func TestStandardAddons_CatalogShape(t *testing.T) {
	addons := motor.StandardAddons()
	require.Len(t, addons, 6)

	ids := map[string]bool{}
	for _, a := range addons {
		ids[a.ID] = true
	}
	for _, want := range []string{
		"excess_protector", "political_violence_terrorism", "loss_of_use",
		"windscreen_cover", "radio_cover", "accessories_cover",
	} {
		assert.True(t, ids[want], "catalog missing %s", want)
	}
}

func TestApplicableAddons_FiltersByCoverTypeAndThreshold(t *testing.T) {
	// GIVEN: a comprehensive vehicle with windscreen above threshold but no
	//        radio or accessories values
	vehicle := motor.VehicleData{
		SumInsured:      dec("2000000"),
		WindscreenValue: dec("45000"),
	}

	addons := motor.ApplicableAddons(motor.CoverComprehensive, vehicle)

	ids := map[string]bool{}
	for _, a := range addons {
		ids[a.ID] = true
	}
	assert.True(t, ids["excess_protector"])
	assert.True(t, ids["windscreen_cover"], "windscreen 45k > 30k threshold")
	assert.False(t, ids["radio_cover"], "no radio value")
	assert.False(t, ids["accessories_cover"], "no accessories value")

	// Third-party cover carries no standard add-ons.
	assert.Empty(t, motor.ApplicableAddons("THIRD_PARTY", vehicle))
}

func TestNormalizeCoverType(t *testing.T) {
	for input, want := range map[string]string{
		"COMPREHENSIVE":         motor.CoverComprehensive,
		"PRIVATE_COMPREHENSIVE": motor.CoverComprehensive,
		"MOTOR_COMP":            motor.CoverComprehensive,
		"comprehensive":         motor.CoverComprehensive,
		"THIRD_PARTY":           "THIRD_PARTY",
		"tor":                   "TOR",
	} {
		assert.Equal(t, want, motor.NormalizeCoverType(input), "input %q", input)
	}
}

// =============================================================================
// SINGLE ADD-ON CALCULATION
// =============================================================================

func TestCalculateAddonPremium_ExcessProtector_MinimumClamp(t *testing.T) {
	// GIVEN: sum insured 1,000,000 at 0.25%
	// WHEN:  raw premium is 2,500, below the 3,000 minimum
	// THEN:  the minimum clamp raises it to 3,000
	addon := mustAddon(t, "excess_protector")

	result := motor.CalculateAddonPremium(addon, comprehensiveVehicle(), nil)

	assert.True(t, result.OriginalPremium.Equal(dec("2500")), "raw = base_rate * sum_insured")
	assert.Equal(t, int64(3000), result.CalculatedPremium)
	assert.True(t, result.IsApplicable)
	assert.Contains(t, result.CalculationDetails, "minimum KSh 3,000 applied")
}

func TestCalculateAddonPremium_ExcessProtector_AboveMinimum(t *testing.T) {
	addon := mustAddon(t, "excess_protector")
	vehicle := motor.VehicleData{SumInsured: dec("2000000")}

	result := motor.CalculateAddonPremium(addon, vehicle, nil)

	assert.Equal(t, int64(5000), result.CalculatedPremium, "2M * 0.25% = 5000, no clamp")
	assert.True(t, result.OriginalPremium.Equal(dec("5000")))
}

func TestCalculateAddonPremium_Windscreen_UnderThreshold(t *testing.T) {
	// GIVEN: windscreen value 25,000 against a 30,000 threshold
	// THEN:  premium is zero and the add-on is not applicable
	addon := mustAddon(t, "windscreen_cover")
	vehicle := motor.VehicleData{WindscreenValue: dec("25000")}

	result := motor.CalculateAddonPremium(addon, vehicle, nil)

	assert.Equal(t, int64(0), result.CalculatedPremium)
	assert.False(t, result.IsApplicable)
	assert.Contains(t, result.CalculationDetails, "below threshold")
}

func TestCalculateAddonPremium_Windscreen_OverThreshold(t *testing.T) {
	addon := mustAddon(t, "windscreen_cover")
	vehicle := motor.VehicleData{WindscreenValue: dec("50000")}

	result := motor.CalculateAddonPremium(addon, vehicle, nil)

	assert.Equal(t, int64(5000), result.CalculatedPremium, "50,000 * 10%")
	assert.True(t, result.IsApplicable)
	assert.True(t, result.IsConditional)
}

func TestCalculateAddonPremium_LossOfUse_FixedAndCapped(t *testing.T) {
	addon := mustAddon(t, "loss_of_use")

	result := motor.CalculateAddonPremium(addon, motor.VehicleData{}, nil)
	assert.Equal(t, int64(3000), result.CalculatedPremium, "flat amount")
	assert.Equal(t, "Fixed amount", result.CalculationDetails)

	// An underwriter override above the maximum limit is capped.
	uw := &motor.Underwriter{
		Code: "CIC",
		Name: "CIC General",
		Features: motor.UnderwriterFeatures{
			AddonRates: map[string]decimal.Decimal{"loss_of_use": dec("45000")},
		},
	}
	capped := motor.CalculateAddonPremium(addon, motor.VehicleData{}, uw)
	assert.Equal(t, int64(30000), capped.CalculatedPremium)
	assert.Contains(t, capped.CalculationDetails, "capped at KSh 30,000")
}

func TestCalculateAddonPremium_UnderwriterRateOverride(t *testing.T) {
	// GIVEN: an underwriter pricing excess protector at 0.5% instead of 0.25%
	addon := mustAddon(t, "excess_protector")
	uw := &motor.Underwriter{
		Code: "JUB",
		Name: "Jubilee",
		Features: motor.UnderwriterFeatures{
			AddonRates: map[string]decimal.Decimal{"excess_protector": dec("0.005")},
		},
	}

	result := motor.CalculateAddonPremium(addon, comprehensiveVehicle(), uw)

	assert.True(t, result.RateApplied.Equal(dec("0.005")))
	assert.Equal(t, int64(5000), result.CalculatedPremium, "1M * 0.5%, above minimum")
}

func TestCalculateAddonPremium_UnderwriterMinimumAfterCatalogClamps(t *testing.T) {
	// GIVEN: catalog minimum raises to 3,000, underwriter minimum is 3,500
	// THEN:  the underwriter minimum applies last
	addon := mustAddon(t, "excess_protector")
	uw := &motor.Underwriter{
		Code: "APA",
		Name: "APA Insurance",
		Features: motor.UnderwriterFeatures{
			MinimumPremiums: map[string]decimal.Decimal{"excess_protector": dec("3500")},
		},
	}

	result := motor.CalculateAddonPremium(addon, comprehensiveVehicle(), uw)

	assert.Equal(t, int64(3500), result.CalculatedPremium)
	assert.Contains(t, result.CalculationDetails, "underwriter minimum KSh 3,500 applied")
}

func TestCalculateAddonPremium_MinimumNeverIntroducesPremium(t *testing.T) {
	// A zero raw premium stays zero; the minimum clamp only raises positives.
	addon := mustAddon(t, "excess_protector")

	result := motor.CalculateAddonPremium(addon, motor.VehicleData{}, nil)

	assert.Equal(t, int64(0), result.CalculatedPremium)
	assert.False(t, result.IsApplicable)
}

// =============================================================================
// TOTALS AND SUMMARY
// =============================================================================

func TestCalculateTotalAddons_EmptySelection(t *testing.T) {
	out := motor.CalculateTotalAddons(nil, comprehensiveVehicle(), nil)

	assert.Equal(t, int64(0), out.Total)
	assert.Empty(t, out.Breakdown)
	assert.Equal(t, int64(0), out.Summary[motor.CategoryProtection])
	assert.Equal(t, int64(0), out.Summary[motor.CategoryBenefits])
	assert.Equal(t, int64(0), out.Summary[motor.CategoryAccessories])
	assert.Equal(t, "Default", out.UnderwriterName)
}

func TestCalculateTotalAddons_OnlyPositivePremiumsCount(t *testing.T) {
	// GIVEN: excess protector (applicable), windscreen (under threshold)
	vehicle := motor.VehicleData{
		SumInsured:      dec("1000000"),
		WindscreenValue: dec("20000"),
	}
	selection := []motor.AddonDefinition{
		mustAddon(t, "excess_protector"),
		mustAddon(t, "windscreen_cover"),
	}

	out := motor.CalculateTotalAddons(selection, vehicle, nil)

	assert.Equal(t, int64(3000), out.Total, "only the clamped excess protector")
	require.Len(t, out.Breakdown, 1)
	assert.Equal(t, "excess_protector", out.Breakdown[0].AddonID)
	assert.Equal(t, int64(3000), out.Summary[motor.CategoryProtection])
	assert.Equal(t, int64(0), out.Summary[motor.CategoryAccessories])
}

func TestCalculateTotalAddons_SummaryKeysEveryObservedCategory(t *testing.T) {
	// A category outside the three canonical buckets still lands in the
	// summary instead of vanishing from it.
	custom := motor.AddonDefinition{
		ID:              "courtesy_car",
		Name:            "Courtesy Car",
		PricingType:     motor.PricingFixed,
		BaseRate:        dec("5000"),
		CalculationBase: motor.BaseFixed,
		ApplicableTo:    []string{motor.CoverComprehensive},
		Category:        motor.CategoryCompensation,
	}

	out := motor.CalculateTotalAddons([]motor.AddonDefinition{custom}, motor.VehicleData{}, nil)

	assert.Equal(t, int64(5000), out.Total)
	assert.Equal(t, int64(5000), out.Summary[motor.CategoryCompensation])
}

func TestCalculateTotalAddons_FullSelection(t *testing.T) {
	vehicle := comprehensiveVehicle()
	selection := []motor.AddonDefinition{
		mustAddon(t, "excess_protector"),             // 2500 -> 3000
		mustAddon(t, "political_violence_terrorism"), // 2500 (minimum 2500, no clamp)
		mustAddon(t, "loss_of_use"),                  // 3000 flat
		mustAddon(t, "windscreen_cover"),             // 5000
		mustAddon(t, "radio_cover"),                  // 4000
	}

	out := motor.CalculateTotalAddons(selection, vehicle, nil)

	assert.Equal(t, int64(3000+2500+3000+5000+4000), out.Total)
	assert.Len(t, out.Breakdown, 5)
	assert.Equal(t, int64(5500), out.Summary[motor.CategoryProtection])
	assert.Equal(t, int64(3000), out.Summary[motor.CategoryBenefits])
	assert.Equal(t, int64(9000), out.Summary[motor.CategoryAccessories])
}

// =============================================================================
// CROSS-UNDERWRITER COMPARISON
// =============================================================================

func TestCompareAddonPricing_SpreadAcrossUnderwriters(t *testing.T) {
	vehicle := comprehensiveVehicle()
	selection := []motor.AddonDefinition{mustAddon(t, "excess_protector")}

	underwriters := []motor.Underwriter{
		{Code: "CIC", Name: "CIC General"}, // default rate: 3000 after clamp
		{Code: "JUB", Name: "Jubilee", Features: motor.UnderwriterFeatures{
			AddonRates: map[string]decimal.Decimal{"excess_protector": dec("0.005")},
		}}, // 5000
	}

	out := motor.CompareAddonPricing(selection, vehicle, underwriters)

	require.Len(t, out.Comparisons, 2)
	assert.Equal(t, int64(3000), out.LowestTotal)
	assert.Equal(t, int64(5000), out.HighestTotal)
	assert.Equal(t, int64(2000), out.SavingsAvailable)
}

func TestCompareAddonPricing_NoUnderwriters(t *testing.T) {
	out := motor.CompareAddonPricing(nil, motor.VehicleData{}, nil)
	assert.Empty(t, out.Comparisons)
	assert.Equal(t, int64(0), out.SavingsAvailable)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidateVehicleDataForAddons(t *testing.T) {
	bad := motor.ValidateVehicleDataForAddons(motor.VehicleData{})
	assert.False(t, bad.IsValid)
	require.Len(t, bad.Errors, 1)

	good := motor.ValidateVehicleDataForAddons(motor.VehicleData{SumInsured: dec("500000")})
	assert.True(t, good.IsValid)
}

func TestValidateAddonSelection_ThresholdErrorsAndHighValueWarnings(t *testing.T) {
	vehicle := motor.VehicleData{
		SumInsured:      dec("1000000"),
		WindscreenValue: dec("250000"), // over warn threshold, over conditional threshold
	}
	selection := []motor.AddonDefinition{
		mustAddon(t, "windscreen_cover"),
		mustAddon(t, "radio_cover"), // zero value: threshold unmet
	}

	v := motor.ValidateAddonSelection(selection, vehicle)

	assert.False(t, v.IsValid)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, "radio_cover", v.Errors[0].AddonID)
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0].Message, "unusually high")
}

func TestValidatePricingInputs(t *testing.T) {
	// Comprehensive requires a sum insured.
	errs := motor.ValidatePricingInputs("PRIVATE_COMPREHENSIVE", motor.Fields{})
	assert.Contains(t, errs, "sum_insured")
	assert.False(t, motor.IsFormValid(errs))

	// TOR does not.
	errs = motor.ValidatePricingInputs("PRIVATE_TOR", motor.Fields{"registrationNumber": "KDA 123A"})
	assert.True(t, motor.IsFormValid(errs))

	// Malformed sum insured is reported, not zeroed.
	errs = motor.ValidatePricingInputs("PRIVATE_COMPREHENSIVE", motor.Fields{"sum_insured": "one million"})
	assert.Contains(t, errs, "sum_insured")

	// Implausible vehicle year.
	errs = motor.ValidatePricingInputs("PRIVATE_TOR", motor.Fields{"vehicle_year": 1800})
	assert.Contains(t, errs, "vehicle_year")
}
