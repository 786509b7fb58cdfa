package config

import (
	"time"
)

// Values wraps a decoded document for type-safe value extraction.
// All accessor methods return default values if the key is missing
// or the value cannot be converted to the requested type.
type Values struct {
	data map[string]any
}

// NewValues creates Values from the given map.
// If data is nil, empty Values are returned.
func NewValues(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (v Values) String(key, defaultVal string) string {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64: interpreted as seconds
//   - float64: interpreted as seconds
//   - time.Duration: used directly
func (v Values) Duration(key string, defaultVal time.Duration) time.Duration {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	switch val := raw.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (v Values) Bool(key string, defaultVal bool) bool {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	if b, ok := raw.(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
//
// Accepts:
//   - int: used directly
//   - int64: converted to int (TOML decodes integers as int64)
//   - float64: converted only if there is no fractional part (JSON)
func (v Values) Int(key string, defaultVal int) int {
	n, ok := v.IntOK(key)
	if !ok {
		return defaultVal
	}
	return n
}

// IntOK is Int without a default: ok is false if key is missing or not
// an integer.
func (v Values) IntOK(key string) (int, bool) {
	raw, ok := v.data[key]
	if !ok {
		return 0, false
	}
	switch val := raw.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val == float64(int(val)) {
			return int(val), true
		}
	}
	return 0, false
}

// Map returns the nested table under key, or empty Values.
func (v Values) Map(key string) Values {
	raw, ok := v.data[key]
	if !ok {
		return NewValues(nil)
	}
	switch val := raw.(type) {
	case map[string]any:
		return NewValues(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			if s, ok := k.(string); ok {
				m[s] = item
			}
		}
		return NewValues(m)
	}
	return NewValues(nil)
}

// Keys returns the keys present at this level.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v.data))
	for k := range v.data {
		keys = append(keys, k)
	}
	return keys
}

// Has returns true if the key exists.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (v Values) Raw() map[string]any {
	return v.data
}
