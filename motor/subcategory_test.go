package motor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/quote-engine/motor"
)

func TestSubcategoryCode_KnownCombinations(t *testing.T) {
	cases := []struct {
		category  string
		coverType string
		want      string
	}{
		{"PRIVATE", "COMPREHENSIVE", "PRIVATE_COMPREHENSIVE"},
		{"private", "comprehensive", "PRIVATE_COMPREHENSIVE"},
		{"PSV", "TOR", "PSV_TOR"},
		{"MOTORCYCLE", "THIRD_PARTY", "MOTORCYCLE_THIRD_PARTY"},
		{"TUKTUK", "COMPREHENSIVE", "TUKTUK_COMPREHENSIVE"},
	}
	for _, c := range cases {
		code, err := motor.SubcategoryCode(c.category, c.coverType)
		require.NoError(t, err, "%s + %s", c.category, c.coverType)
		assert.Equal(t, c.want, code)
	}
}

func TestSubcategoryCode_UnmappedReturnsGuessAndError(t *testing.T) {
	code, err := motor.SubcategoryCode("TRACTOR", "COMPREHENSIVE")

	require.Error(t, err)
	assert.ErrorIs(t, err, motor.ErrUnmappedSubcategory)
	assert.Equal(t, "TRACTOR_COMPREHENSIVE", code, "literal concatenation still returned")
}
