/*
Package money provides monetary rounding, parsing, and statutory levy
computation for Kenyan motor insurance premiums.

PURPOSE:
  All premium arithmetic in the engine flows through this package. Premiums
  and levies are computed with decimal.Decimal to avoid floating-point drift;
  the two rounding conventions used by the business live here:
  - Round2:      levies and normalized totals, 2 decimal places
  - RoundWhole:  add-on premiums, whole Kenyan shillings

STATUTORY LEVIES:
  Every motor premium in Kenya carries three statutory components:
  - ITL (Insurance Training Levy):      0.25% of premium
  - PCF (Policyholders Compensation):   0.25% of premium
  - Stamp Duty:                         fixed KSh 40

USAGE:
  levies := money.ComputeLevies(premium)
  payable := money.ComputeTotalPayable(premium)

SEE ALSO:
  - motor/normalize.go: uses the same levy rates when recomputing totals
*/
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATES AND CONSTANTS
// =============================================================================

var (
	// ITLRate is the Insurance Training Levy rate (0.25%).
	ITLRate = decimal.NewFromFloat(0.0025)

	// PCFRate is the Policyholders Compensation Fund rate (0.25%).
	PCFRate = decimal.NewFromFloat(0.0025)

	// StampDuty is the fixed stamp duty in KSh.
	StampDuty = decimal.NewFromInt(40)
)

// =============================================================================
// ROUNDING
// =============================================================================

// Round2 rounds to 2 decimal places, half away from zero. Half-up rounding
// would differ on negative midpoints (-1.005), which cannot occur for
// premiums and levies.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundWhole rounds to the nearest whole shilling.
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// =============================================================================
// PARSING
// =============================================================================

// ErrMalformedAmount is returned when a monetary string cannot be parsed.
var ErrMalformedAmount = errors.New("malformed amount")

// ParseError carries the offending input alongside ErrMalformedAmount.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed amount %q", e.Input)
}

func (e *ParseError) Unwrap() error { return ErrMalformedAmount }

// ParseAmount parses a monetary value from user input. Thousands separators
// and whitespace are stripped ("1,250,000" parses as 1250000). Malformed
// input returns a ParseError rather than silently becoming zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" {
		return decimal.Zero, &ParseError{Input: s}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ParseError{Input: s}
	}
	return d, nil
}

// AmountOrZero parses like ParseAmount but maps failure to zero. Used only
// where the legacy contract deliberately tolerates absent values.
func AmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// LEVIES
// =============================================================================

// Levies holds the statutory components on top of a base premium.
type Levies struct {
	ITL         decimal.Decimal `json:"itl"`
	PCF         decimal.Decimal `json:"pcf"`
	StampDuty   decimal.Decimal `json:"stamp_duty"`
	TotalLevies decimal.Decimal `json:"total_levies"`
}

// ComputeLevies computes the statutory levies on a premium.
// Each component is rounded to 2dp individually, then summed.
func ComputeLevies(premium decimal.Decimal) Levies {
	itl := Round2(premium.Mul(ITLRate))
	pcf := Round2(premium.Mul(PCFRate))
	return Levies{
		ITL:         itl,
		PCF:         pcf,
		StampDuty:   StampDuty,
		TotalLevies: Round2(itl.Add(pcf).Add(StampDuty)),
	}
}

// TotalPayable is the premium plus its statutory levies.
type TotalPayable struct {
	Levies
	TotalPayable decimal.Decimal `json:"total_payable"`
}

// ComputeTotalPayable returns the levies together with the gross payable.
func ComputeTotalPayable(premium decimal.Decimal) TotalPayable {
	levies := ComputeLevies(premium)
	return TotalPayable{
		Levies:       levies,
		TotalPayable: Round2(premium.Add(levies.TotalLevies)),
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatKES formats an amount as "KSh 1,250,000" for calculation traces.
// Fractional parts are kept only when present.
func FormatKES(d decimal.Decimal) string {
	neg := d.IsNegative()
	abs := d.Abs()

	whole := abs.Floor()
	frac := abs.Sub(whole)

	digits := whole.String()
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	out := "KSh " + grouped.String()
	if !frac.IsZero() {
		fracStr := Round2(frac).String() // "0.25"
		out += strings.TrimPrefix(fracStr, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
