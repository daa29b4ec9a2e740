package motor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/quote-engine/money"
	"github.com/boma/quote-engine/motor"
)

// =============================================================================
// COMPREHENSIVE VS MINIMAL PAYLOADS
// =============================================================================

func TestTransform_ComprehensiveCarriesPricingFields(t *testing.T) {
	inputs := motor.Fields{
		"category":           "PRIVATE",
		"subcategory_code":   "PRIVATE_COMPREHENSIVE",
		"registrationNumber": "KDA 123A",
		"sum_insured":        "1,250,000",
		"vehicle_year":       2020,
		"tonnage":            3.5,
		"passengers":         4,
		"excess_protector":   true,
	}

	req, err := motor.TransformPricingRequest("PRIVATE_COMPREHENSIVE", inputs, motor.WithCurrentYear(2026))
	require.NoError(t, err)

	assert.Equal(t, "PRIVATE", req.Category)
	assert.Equal(t, "PRIVATE_COMPREHENSIVE", req.Subcategory)
	assert.Equal(t, "KDA 123A", req.VehicleRegistration)
	assert.Equal(t, float64(1250000), req.SumInsured, "thousands separators stripped")
	require.NotNil(t, req.VehicleAge)
	assert.Equal(t, 6, *req.VehicleAge)
	require.NotNil(t, req.Tonnage)
	assert.Equal(t, 3.5, *req.Tonnage)
	require.NotNil(t, req.PassengerCount)
	assert.Equal(t, 4, *req.PassengerCount)
	require.NotNil(t, req.AddOns)
	require.NotNil(t, req.AddOns.ExcessProtector)
	assert.True(t, *req.AddOns.ExcessProtector)
	assert.Equal(t, 365, req.DurationDays, "comprehensive default duration")
}

func TestTransform_MinimalPayloadForTOR(t *testing.T) {
	inputs := motor.Fields{
		"category":           "PRIVATE",
		"subcategory":        "PRIVATE_TOR",
		"registrationNumber": "KBZ 456B",
		"vehicle_year":       "2018",
	}

	req, err := motor.TransformPricingRequest("PRIVATE_TOR", inputs)
	require.NoError(t, err)

	assert.Zero(t, req.SumInsured)
	assert.Nil(t, req.VehicleAge, "minimal payload carries year only")
	assert.Equal(t, 2018, req.VehicleYear)
	assert.Equal(t, 30, req.DurationDays, "minimal default duration")
	assert.Nil(t, req.AddOns)
}

func TestTransform_SumInsuredAliasForcesFullPayload(t *testing.T) {
	// Even a non-comprehensive product type carries pricing fields once a
	// sum-insured alias appears.
	inputs := motor.Fields{
		"vehicle_value": 800000,
		"vehicle_year":  2021,
	}

	req, err := motor.TransformPricingRequest("PRIVATE_TOR", inputs, motor.WithCurrentYear(2026))
	require.NoError(t, err)

	assert.Equal(t, float64(800000), req.SumInsured)
	require.NotNil(t, req.VehicleAge)
	assert.Equal(t, 5, *req.VehicleAge)
	assert.Equal(t, 365, req.DurationDays)
}

func TestTransform_VehicleAgeClampedAtZero(t *testing.T) {
	inputs := motor.Fields{"sum_insured": 500000, "vehicle_year": 2030}

	req, err := motor.TransformPricingRequest("COMP", inputs, motor.WithCurrentYear(2026))
	require.NoError(t, err)

	require.NotNil(t, req.VehicleAge)
	assert.Equal(t, 0, *req.VehicleAge, "future year clamps to zero age")
}

// =============================================================================
// NUMERIC COERCION
// =============================================================================

func TestTransform_MalformedSumInsuredIsAnError(t *testing.T) {
	inputs := motor.Fields{"sum_insured": "a lot"}

	_, err := motor.TransformPricingRequest("PRIVATE_COMPREHENSIVE", inputs)

	require.Error(t, err)
	assert.ErrorIs(t, err, money.ErrMalformedAmount)
}

// =============================================================================
// DURATION
// =============================================================================

func TestTransform_DurationPrecedence(t *testing.T) {
	// Explicit duration_days wins.
	req, err := motor.TransformPricingRequest("PRIVATE_COMPREHENSIVE",
		motor.Fields{"sum_insured": 1, "duration_days": 90})
	require.NoError(t, err)
	assert.Equal(t, 90, req.DurationDays)

	// policy_term_months converts at 30 days/month.
	req, err = motor.TransformPricingRequest("PRIVATE_COMPREHENSIVE",
		motor.Fields{"sum_insured": 1, "policy_term_months": 6})
	require.NoError(t, err)
	assert.Equal(t, 180, req.DurationDays)
	assert.Equal(t, 6, req.PolicyTermMonths)
}

func TestTransform_PolicyTermFromLabel(t *testing.T) {
	req, err := motor.TransformPricingRequest("PRIVATE_TOR",
		motor.Fields{"coveragePeriod": "12 Months"})
	require.NoError(t, err)
	assert.Equal(t, 12, req.PolicyTermMonths)
}

// =============================================================================
// CUSTOMER FIELDS
// =============================================================================

func TestTransform_CustomerNameSplit(t *testing.T) {
	req, err := motor.TransformPricingRequest("PRIVATE_TOR",
		motor.Fields{"fullName": "Wanjiku  Kamau Njoroge"})
	require.NoError(t, err)

	assert.Equal(t, "Wanjiku", req.CustomerFirstName)
	assert.Equal(t, "Kamau Njoroge", req.CustomerLastName)
}

func TestTransform_NoPlaceholderCustomerByDefault(t *testing.T) {
	req, err := motor.TransformPricingRequest("PRIVATE_TOR", motor.Fields{})
	require.NoError(t, err)

	assert.Empty(t, req.CustomerFirstName)
	assert.Empty(t, req.CustomerPhone)
	assert.Empty(t, req.CustomerEmail)
}

func TestTransform_PlaceholderCustomerOptIn(t *testing.T) {
	req, err := motor.TransformPricingRequest("PRIVATE_TOR", motor.Fields{},
		motor.WithPlaceholderCustomer())
	require.NoError(t, err)

	assert.Equal(t, "John", req.CustomerFirstName)
	assert.Equal(t, "Doe", req.CustomerLastName)
	assert.Equal(t, "254712345678", req.CustomerPhone)
	assert.Equal(t, "john.doe@email.com", req.CustomerEmail)
}

func TestTransform_PlaceholderDoesNotOverrideRealData(t *testing.T) {
	req, err := motor.TransformPricingRequest("PRIVATE_TOR",
		motor.Fields{"ownerName": "Akinyi Odhiambo", "ownerPhone": "254700111222"},
		motor.WithPlaceholderCustomer())
	require.NoError(t, err)

	assert.Equal(t, "Akinyi", req.CustomerFirstName)
	assert.Equal(t, "Odhiambo", req.CustomerLastName)
	assert.Equal(t, "254700111222", req.CustomerPhone)
	assert.Equal(t, "john.doe@email.com", req.CustomerEmail, "only the missing field defaults")
}

// =============================================================================
// VEHICLE DATA EXTRACTION
// =============================================================================

func TestVehicleDataFromFields(t *testing.T) {
	inputs := motor.Fields{
		"sum_insured":          "1,000,000",
		"windscreen_value":     50000,
		"radio_cassette_value": "40,000",
		"passengers":           14,
		"registrationNumber":   "KCV 987C",
	}

	v, err := motor.VehicleDataFromFields(inputs)
	require.NoError(t, err)

	assert.True(t, v.SumInsured.Equal(dec("1000000")))
	assert.True(t, v.WindscreenValue.Equal(dec("50000")))
	assert.True(t, v.RadioCassetteValue.Equal(dec("40000")))
	assert.Equal(t, 14, v.PassengerCapacity)
	assert.Equal(t, "KCV 987C", v.RegistrationNumber)
}

func TestVehicleDataFromFields_MalformedValueIsAnError(t *testing.T) {
	_, err := motor.VehicleDataFromFields(motor.Fields{"windscreen_value": "n/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, money.ErrMalformedAmount)
}

// =============================================================================
// FIELDS MERGE SEMANTICS
// =============================================================================

func TestFieldsMerge_DoesNotMutateReceiver(t *testing.T) {
	original := motor.Fields{"x": 1}
	merged := original.Merge(motor.Fields{"x": 2, "y": 3})

	assert.Equal(t, 1, original["x"], "receiver untouched")
	assert.Equal(t, 2, merged["x"])
	assert.Equal(t, 3, merged["y"])
}
