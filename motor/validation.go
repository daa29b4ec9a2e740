/*
validation.go - Pre-network validation for quotation inputs

PURPOSE:
  Client-side gates that keep bad requests off the wire. Two families:
  - add-on validations: non-fatal {message} error/warning lists consumed for
    guidance (selection of a conditional add-on whose threshold is unmet, or
    values that look implausibly high)
  - pricing-input validation: per-field errors that block premium calculation
    entirely until resolved

Validation never mutates the inputs and never reaches the network.
*/
package motor

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boma/quote-engine/money"
)

// =============================================================================
// ADD-ON VALIDATION
// =============================================================================

// ValidationMessage is a non-fatal error or warning tied to an add-on.
type ValidationMessage struct {
	AddonID string `json:"addon_id,omitempty"`
	Message string `json:"message"`
}

// AddonValidation is the outcome of an add-on compatibility check.
type AddonValidation struct {
	IsValid  bool                `json:"is_valid"`
	Errors   []ValidationMessage `json:"errors"`
	Warnings []ValidationMessage `json:"warnings"`
}

var (
	windscreenWarnAbove = decimal.NewFromInt(200000)
	radioWarnAbove      = decimal.NewFromInt(150000)
)

// ValidateVehicleDataForAddons checks a vehicle can carry add-ons at all.
func ValidateVehicleDataForAddons(vehicle VehicleData) AddonValidation {
	v := AddonValidation{Errors: []ValidationMessage{}, Warnings: []ValidationMessage{}}

	if !vehicle.SumInsured.IsPositive() {
		v.Errors = append(v.Errors, ValidationMessage{
			Message: "Sum insured is required for add-on calculations",
		})
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// ValidateAddonSelection checks each selected add-on against the vehicle:
// conditional thresholds produce errors, implausibly high component values
// produce warnings.
func ValidateAddonSelection(selected []AddonDefinition, vehicle VehicleData) AddonValidation {
	v := AddonValidation{Errors: []ValidationMessage{}, Warnings: []ValidationMessage{}}

	for _, addon := range selected {
		if addon.Conditional {
			value := vehicle.ValueFor(addon.CalculationBase)
			if !value.GreaterThan(addon.MinimumValueThreshold) {
				v.Errors = append(v.Errors, ValidationMessage{
					AddonID: addon.ID,
					Message: fmt.Sprintf("%s requires %s value above %s",
						addon.Name,
						strings.ReplaceAll(string(addon.CalculationBase), "_", " "),
						money.FormatKES(addon.MinimumValueThreshold)),
				})
			}
		}

		if addon.CalculationBase == BaseWindscreenValue && vehicle.WindscreenValue.GreaterThan(windscreenWarnAbove) {
			v.Warnings = append(v.Warnings, ValidationMessage{
				AddonID: addon.ID,
				Message: fmt.Sprintf("Windscreen value seems unusually high (%s)", money.FormatKES(vehicle.WindscreenValue)),
			})
		}
		if addon.CalculationBase == BaseRadioCassette && vehicle.RadioCassetteValue.GreaterThan(radioWarnAbove) {
			v.Warnings = append(v.Warnings, ValidationMessage{
				AddonID: addon.ID,
				Message: fmt.Sprintf("Radio/Cassette value seems unusually high (%s)", money.FormatKES(vehicle.RadioCassetteValue)),
			})
		}
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// =============================================================================
// PRICING-INPUT VALIDATION
// =============================================================================

// FieldErrors maps field name to error message. Empty means the form is valid.
type FieldErrors map[string]string

// IsFormValid reports whether a validation pass produced no errors.
func IsFormValid(errs FieldErrors) bool { return len(errs) == 0 }

const earliestVehicleYear = 1970

// ValidatePricingInputs gates premium calculation. Comprehensive-like
// products require a positive sum insured; all products require a plausible
// vehicle year when one is supplied.
func ValidatePricingInputs(productType string, inputs Fields) FieldErrors {
	errs := FieldErrors{}

	if requiresPricingCalculation(productType, inputs) {
		si, ok, err := inputs.amount(aliasesSumInsured...)
		switch {
		case err != nil:
			errs["sum_insured"] = "Sum insured must be a number"
		case !ok || !si.IsPositive():
			errs["sum_insured"] = "Sum insured is required"
		}
	}

	if yearRaw, ok := inputs.lookup("vehicle_year", "year_of_manufacture", "yearOfManufacture"); ok {
		year, err := toInt(yearRaw)
		if err != nil || year < earliestVehicleYear || year > time.Now().Year()+1 {
			errs["vehicle_year"] = "Vehicle year is invalid"
		}
	}

	return errs
}
