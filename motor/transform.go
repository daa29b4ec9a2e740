/*
transform.go - UI field names -> canonical backend request

PURPOSE:
  The quotation forms accumulate a loose bag of values under historical field
  names (registrationNumber vs vehicle_registration, sumInsured vs
  sum_insured vs vehicle_value...). This file maps those aliases into the one
  request shape the upstream pricing API accepts.

THE COMPREHENSIVE DECISION:
  A request carries pricing-calculation fields (sum insured, vehicle age,
  tonnage, passenger count, add-on flags) only when the product is
  comprehensive-like, or when any sum-insured alias is present. TOR and
  Third-Party payloads stay minimal.

NUMERIC COERCION:
  String amounts go through money.ParseAmount; a malformed value is an error,
  not a silent zero. The original client coerced best-effort and priced on
  NaN-as-zero; that behavior silently underpriced and is not preserved.

CUSTOMER DEFAULTS:
  The legacy client injected "John Doe" placeholder identity when customer
  fields were absent so the backend would not reject the request. That is a
  development-time workaround: it is OFF by default and only enabled through
  WithPlaceholderCustomer for test environments.
*/
package motor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boma/quote-engine/money"
)

// =============================================================================
// FIELD ALIASES
// =============================================================================

var (
	aliasesSumInsured   = []string{"sum_insured", "sumInsured", "vehicle_value", "vehicle_valuation"}
	aliasesRegistration = []string{"vehicle_registration", "registrationNumber"}
	aliasesSubcategory  = []string{"subcategory_code", "subcategory"}
	aliasesCategory     = []string{"category", "category_code"}
	aliasesUnderwriter  = []string{"underwriter_code", "underwriter"}
	aliasesFullName     = []string{"fullName", "ownerName"}
	aliasesPhone        = []string{"phoneNumber", "ownerPhone"}
	aliasesEmail        = []string{"email", "emailAddress", "ownerEmail"}
)

// lookup returns the first present, non-empty value among the keys.
func (f Fields) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (f Fields) str(keys ...string) (string, bool) {
	v, ok := f.lookup(keys...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// amount resolves the first present alias to a decimal. Strings pass through
// money.ParseAmount so "1,250,000" coerces; malformed strings are errors.
func (f Fields) amount(keys ...string) (decimal.Decimal, bool, error) {
	v, ok := f.lookup(keys...)
	if !ok {
		return decimal.Zero, false, nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, true, err
	}
	return d, true, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		return money.ParseAmount(t)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", money.ErrMalformedAmount, v)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", money.ErrMalformedAmount, t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", money.ErrMalformedAmount, v)
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1" || t == "yes"
	case int:
		return t != 0
	case float64:
		return t != 0
	default:
		return false
	}
}

// =============================================================================
// TRANSFORM OPTIONS
// =============================================================================

type transformConfig struct {
	currentYear         int
	placeholderCustomer bool
}

// TransformOption adjusts request construction.
type TransformOption func(*transformConfig)

// WithCurrentYear pins the year used for vehicle-age derivation (tests).
func WithCurrentYear(year int) TransformOption {
	return func(c *transformConfig) { c.currentYear = year }
}

// WithPlaceholderCustomer re-enables the legacy "John Doe" customer defaults
// for environments whose backend rejects requests without customer identity.
func WithPlaceholderCustomer() TransformOption {
	return func(c *transformConfig) { c.placeholderCustomer = true }
}

// =============================================================================
// REQUEST TRANSFORM
// =============================================================================

const (
	defaultDurationComprehensive = 365
	defaultDurationMinimal       = 30
	daysPerMonth                 = 30
)

var policyTermPattern = regexp.MustCompile(`(?i)(\d+)\s*month`)

// requiresPricingCalculation decides whether the request carries the full
// pricing field set: comprehensive-like product, or any sum-insured alias.
func requiresPricingCalculation(productType string, inputs Fields) bool {
	if NormalizeCoverType(productType) == CoverComprehensive {
		return true
	}
	_, present := inputs.lookup(aliasesSumInsured...)
	return present
}

// TransformPricingRequest builds the canonical request from form fields.
// Malformed numeric input is reported as an error instead of being priced
// as zero.
func TransformPricingRequest(productType string, inputs Fields, opts ...TransformOption) (PricingRequest, error) {
	cfg := transformConfig{currentYear: time.Now().Year()}
	for _, opt := range opts {
		opt(&cfg)
	}

	req := PricingRequest{}

	if v, ok := inputs.str(aliasesCategory...); ok {
		req.Category = v
	}
	if v, ok := inputs.str(aliasesSubcategory...); ok {
		req.Subcategory = v
	}
	if v, ok := inputs.str("subcategory_code"); ok {
		req.SubcategoryCode = v
	}
	if v, ok := inputs.str(aliasesUnderwriter...); ok {
		req.Underwriter = v
	}
	if v, ok := inputs.str("underwriter_code"); ok {
		req.UnderwriterCode = v
	}
	if v, ok := inputs.str(aliasesRegistration...); ok {
		req.VehicleRegistration = v
	}
	if v, ok := inputs.str("cover_start_date"); ok {
		req.CoverStartDate = v
	}

	full := requiresPricingCalculation(productType, inputs)

	if full {
		if yearRaw, ok := inputs.lookup("vehicle_year"); ok {
			year, err := toInt(yearRaw)
			if err != nil {
				return PricingRequest{}, fmt.Errorf("vehicle_year: %w", err)
			}
			age := cfg.currentYear - year
			if age < 0 {
				age = 0
			}
			req.VehicleAge = &age
			req.VehicleYear = year
		}

		if si, ok, err := inputs.amount(aliasesSumInsured...); err != nil {
			return PricingRequest{}, fmt.Errorf("sum_insured: %w", err)
		} else if ok {
			req.SumInsured, _ = si.Float64()
		}

		if tRaw, ok := inputs.lookup("tonnage"); ok {
			td, err := toDecimal(tRaw)
			if err != nil {
				return PricingRequest{}, fmt.Errorf("tonnage: %w", err)
			}
			tf, _ := td.Float64()
			req.Tonnage = &tf
		}
		if pRaw, ok := inputs.lookup("passengers", "passengerCapacity", "passenger_count"); ok {
			pc, err := toInt(pRaw)
			if err != nil {
				return PricingRequest{}, fmt.Errorf("passenger_count: %w", err)
			}
			req.PassengerCount = &pc
		}

		flags := AddonFlags{}
		hasFlags := false
		if v, ok := inputs.lookup("excess_protector"); ok {
			b := toBool(v)
			flags.ExcessProtector = &b
			hasFlags = true
		}
		if v, ok := inputs.lookup("pvt"); ok {
			b := toBool(v)
			flags.PVT = &b
			hasFlags = true
		}
		if v, ok := inputs.lookup("cover_days"); ok {
			n, err := toInt(v)
			if err != nil {
				return PricingRequest{}, fmt.Errorf("cover_days: %w", err)
			}
			flags.CoverDays = &n
			hasFlags = true
		}
		if hasFlags {
			req.AddOns = &flags
		}

		if v, ok := inputs.str("vehicle_make"); ok {
			req.VehicleMake = v
		}
		if v, ok := inputs.str("vehicle_model"); ok {
			req.VehicleModel = v
		}
	} else if yearRaw, ok := inputs.lookup("vehicle_year"); ok {
		// Minimal payload still carries the year for age restrictions.
		year, err := toInt(yearRaw)
		if err != nil {
			return PricingRequest{}, fmt.Errorf("vehicle_year: %w", err)
		}
		req.VehicleYear = year
	}

	applyCustomerFields(&req, inputs, cfg.placeholderCustomer)

	// Duration: explicit wins, then months*30, then the product-shape default.
	if v, ok := inputs.lookup("duration_days"); ok {
		n, err := toInt(v)
		if err != nil {
			return PricingRequest{}, fmt.Errorf("duration_days: %w", err)
		}
		req.DurationDays = n
	} else if v, ok := inputs.lookup("policy_term_months"); ok {
		months, err := toInt(v)
		if err != nil {
			return PricingRequest{}, fmt.Errorf("policy_term_months: %w", err)
		}
		req.DurationDays = months * daysPerMonth
	} else if full {
		req.DurationDays = defaultDurationComprehensive
	} else {
		req.DurationDays = defaultDurationMinimal
	}

	if v, ok := inputs.lookup("policy_term_months"); ok {
		if months, err := toInt(v); err == nil {
			req.PolicyTermMonths = months
		}
	} else if label, ok := inputs.str("coveragePeriod", "policy_term_label"); ok {
		// Accept human-readable "12 months".
		if m := policyTermPattern.FindStringSubmatch(label); m != nil {
			req.PolicyTermMonths, _ = strconv.Atoi(m[1])
		}
	}

	return req, nil
}

const (
	placeholderFirstName = "John"
	placeholderLastName  = "Doe"
	placeholderPhone     = "254712345678"
	placeholderEmail     = "john.doe@email.com"
)

func applyCustomerFields(req *PricingRequest, inputs Fields, placeholder bool) {
	if name, ok := inputs.str(aliasesFullName...); ok {
		parts := strings.Fields(name)
		if len(parts) > 0 {
			req.CustomerFirstName = parts[0]
		}
		if len(parts) > 1 {
			req.CustomerLastName = strings.Join(parts[1:], " ")
		}
	}
	if v, ok := inputs.str("customer_first_name", "firstName"); ok {
		req.CustomerFirstName = v
	}
	if v, ok := inputs.str("customer_last_name", "lastName"); ok {
		req.CustomerLastName = v
	}
	if v, ok := inputs.str(aliasesPhone...); ok {
		req.CustomerPhone = v
	}
	if v, ok := inputs.str(aliasesEmail...); ok {
		req.CustomerEmail = v
	}

	if !placeholder {
		return
	}
	if req.CustomerFirstName == "" {
		req.CustomerFirstName = placeholderFirstName
	}
	if req.CustomerLastName == "" {
		req.CustomerLastName = placeholderLastName
	}
	if req.CustomerPhone == "" {
		req.CustomerPhone = placeholderPhone
	}
	if req.CustomerEmail == "" {
		req.CustomerEmail = placeholderEmail
	}
}

// =============================================================================
// VEHICLE DATA EXTRACTION
// =============================================================================

// VehicleDataFromFields builds the typed calculation view from form fields.
// Unparseable component values are reported, not zeroed.
func VehicleDataFromFields(inputs Fields) (VehicleData, error) {
	v := VehicleData{}

	read := func(dst *decimal.Decimal, field string, keys ...string) error {
		d, ok, err := inputs.amount(keys...)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if ok {
			*dst = d
		}
		return nil
	}

	if err := read(&v.SumInsured, "sum_insured", aliasesSumInsured...); err != nil {
		return VehicleData{}, err
	}
	if err := read(&v.WindscreenValue, "windscreen_value", "windscreen_value", "windscreenValue"); err != nil {
		return VehicleData{}, err
	}
	if err := read(&v.RadioCassetteValue, "radio_cassette_value", "radio_cassette_value", "radioCassetteValue"); err != nil {
		return VehicleData{}, err
	}
	if err := read(&v.AccessoriesValue, "vehicle_accessories_value", "vehicle_accessories_value", "other_accessories_value"); err != nil {
		return VehicleData{}, err
	}
	if err := read(&v.Tonnage, "tonnage", "tonnage"); err != nil {
		return VehicleData{}, err
	}

	if raw, ok := inputs.lookup("passengers", "passengerCapacity", "passenger_count"); ok {
		n, err := toInt(raw)
		if err != nil {
			return VehicleData{}, fmt.Errorf("passenger_count: %w", err)
		}
		v.PassengerCapacity = n
	}
	if raw, ok := inputs.lookup("vehicle_year", "year_of_manufacture"); ok {
		if n, err := toInt(raw); err == nil {
			v.YearOfManufacture = n
		}
	}
	if s, ok := inputs.str(aliasesRegistration...); ok {
		v.RegistrationNumber = s
	}
	if s, ok := inputs.str("vehicle_make", "make"); ok {
		v.Make = s
	}
	if s, ok := inputs.str("vehicle_model", "model"); ok {
		v.Model = s
	}

	return v, nil
}
