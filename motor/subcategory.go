/*
subcategory.go - Category + cover type -> subcategory code

The pricing backend keys underwriter discovery by subcategory code. The
mapping below is exhaustive over the product matrix; an unknown combination
is a distinct error rather than a silently-accepted guessed string, though
the literal concatenation is still returned for callers that want to fall
back to legacy behavior.
*/
package motor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnmappedSubcategory is returned for a category/cover-type combination
// outside the product matrix.
var ErrUnmappedSubcategory = errors.New("unmapped subcategory")

var subcategoryCodes = map[string]string{
	"PRIVATE_THIRD_PARTY":      "PRIVATE_THIRD_PARTY",
	"PRIVATE_TOR":              "PRIVATE_TOR",
	"PRIVATE_COMPREHENSIVE":    "PRIVATE_COMPREHENSIVE",
	"COMMERCIAL_THIRD_PARTY":   "COMMERCIAL_THIRD_PARTY",
	"COMMERCIAL_TOR":           "COMMERCIAL_TOR",
	"COMMERCIAL_COMPREHENSIVE": "COMMERCIAL_COMPREHENSIVE",
	"PSV_THIRD_PARTY":          "PSV_THIRD_PARTY",
	"PSV_TOR":                  "PSV_TOR",
	"PSV_COMPREHENSIVE":        "PSV_COMPREHENSIVE",
	"MOTORCYCLE_THIRD_PARTY":   "MOTORCYCLE_THIRD_PARTY",
	"MOTORCYCLE_TOR":           "MOTORCYCLE_TOR",
	"MOTORCYCLE_COMPREHENSIVE": "MOTORCYCLE_COMPREHENSIVE",
	"TUKTUK_THIRD_PARTY":       "TUKTUK_THIRD_PARTY",
	"TUKTUK_TOR":               "TUKTUK_TOR",
	"TUKTUK_COMPREHENSIVE":     "TUKTUK_COMPREHENSIVE",
	"SPECIAL_THIRD_PARTY":      "SPECIAL_THIRD_PARTY",
	"SPECIAL_TOR":              "SPECIAL_TOR",
	"SPECIAL_COMPREHENSIVE":    "SPECIAL_COMPREHENSIVE",
}

// SubcategoryCode maps category + cover type to the backend subcategory code.
// Unknown combinations return the literal "{CATEGORY}_{COVERTYPE}" alongside
// ErrUnmappedSubcategory so callers choose whether to trust the guess.
func SubcategoryCode(category, coverType string) (string, error) {
	key := fmt.Sprintf("%s_%s", strings.ToUpper(category), strings.ToUpper(coverType))
	if code, ok := subcategoryCodes[key]; ok {
		return code, nil
	}
	return key, fmt.Errorf("%w: %s", ErrUnmappedSubcategory, key)
}
