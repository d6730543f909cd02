// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"fmt"
	"math"
	"sort"
)

// Context holds named values handed to the providers with every call of a session, as an
// IWbemContext.  Values are strings, integers that fit in 32 bits, floats or booleans, e.g.
//
//	wmi.Context{"__ProviderArchitecture": 64, "__RequiredArchitecture": true}
//
// reaches the 64-bit registry provider from a 32-bit process.
type Context map[string]interface{}

// Names returns the value names, sorted
func (c Context) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variants converts the values to the Variants stored in the IWbemContext
func (c Context) Variants() (map[string]Variant, error) {
	out := make(map[string]Variant, len(c))
	for name, value := range c {
		if name == "" {
			return nil, fmt.Errorf("context value without a name")
		}
		v, err := contextVariant(value)
		if err != nil {
			return nil, fmt.Errorf("context value %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func contextVariant(value interface{}) (Variant, error) {
	switch t := value.(type) {
	case string:
		return StringVariant(t), nil
	case bool:
		return BoolVariant(t), nil
	case float32:
		return R8Variant(float64(t)), nil
	case float64:
		return R8Variant(t), nil
	case int8:
		return I4Variant(int32(t)), nil
	case int16:
		return I4Variant(int32(t)), nil
	case int32:
		return I4Variant(t), nil
	case uint8:
		return I4Variant(int32(t)), nil
	case uint16:
		return I4Variant(int32(t)), nil
	case int:
		return contextInt(int64(t))
	case int64:
		return contextInt(t)
	case uint32:
		return contextInt(int64(t))
	}
	return Variant{}, &UnsupportedTypeError{Type: fmt.Sprintf("%T", value)}
}

func contextInt(n int64) (Variant, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return Variant{}, fmt.Errorf("value %d overflows int32", n)
	}
	return I4Variant(int32(n)), nil
}
