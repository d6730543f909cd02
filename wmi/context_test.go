// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextVariants(t *testing.T) {
	values, err := Context{
		"__ProviderArchitecture": 64,
		"__RequiredArchitecture": true,
		"Tag":                    "inventory",
		"Ratio":                  float32(0.5),
		"Small":                  uint16(7),
		"Large":                  int64(math.MaxInt32),
		"Unsigned":               uint32(12),
	}.Variants()
	require.NoError(t, err)

	tests := map[string]Variant{
		"__ProviderArchitecture": I4Variant(64),
		"__RequiredArchitecture": BoolVariant(true),
		"Tag":                    StringVariant("inventory"),
		"Ratio":                  R8Variant(0.5),
		"Small":                  I4Variant(7),
		"Large":                  I4Variant(math.MaxInt32),
		"Unsigned":               I4Variant(12),
	}
	require.Len(t, values, len(tests))
	for name, want := range tests {
		assert.True(t, want.Equal(values[name]), "%s: want %v, got %v", name, want, values[name])
	}
}

func TestContextVariantsErrors(t *testing.T) {
	_, err := Context{"Big": int64(math.MaxInt32) + 1}.Variants()
	assert.ErrorContains(t, err, "overflows int32")

	_, err = Context{"Big": uint32(math.MaxUint32)}.Variants()
	assert.ErrorContains(t, err, "overflows int32")

	_, err = Context{"List": []string{"a"}}.Variants()
	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "[]string", unsupported.Type)

	_, err = Context{"": 1}.Variants()
	assert.Error(t, err)

	values, err := Context(nil).Variants()
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestContextNames(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "__C"}, Context{"__C": 1, "B": 2, "A": 3}.Names())
	assert.Empty(t, Context(nil).Names())
}
