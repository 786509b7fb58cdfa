package diagram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies which scalar a Value holds.
type ValueKind int

// Value kinds.
const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueBool:
		return "boolean"
	default:
		return "string"
	}
}

// Value is a custom property value: a string, a number or a boolean.
// The zero Value is the empty string.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value { return Value{kind: ValueNumber, num: f} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// Kind returns the kind of scalar held.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == ValueString }

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (float64, bool) { return v.num, v.kind == ValueNumber }

// Bool returns the boolean payload and whether v is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == ValueBool }

// Truthy reports whether v is truthy: non-empty strings, non-zero numbers
// and true.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueNumber:
		return v.num != 0
	case ValueBool:
		return v.b
	default:
		return v.str != ""
	}
}

// String renders the value the way a panel text input shows it.
func (v Value) String() string {
	switch v.kind {
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// ParseValue converts raw text input into a Value.
// Quoted text ('x' or "x") is a string, true/false (any case) is a boolean,
// anything that parses as a JSON number is a number, and everything else is
// kept verbatim as a string.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 &&
		((strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")) ||
			(strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\""))) {
		return StringValue(s[1 : len(s)-1])
	}

	switch strings.ToLower(s) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	var num json.Number
	if s != "" && json.Unmarshal([]byte(s), &num) == nil {
		if f, err := num.Float64(); err == nil {
			return NumberValue(f)
		}
	}

	return StringValue(raw)
}

// MarshalJSON encodes the value as a bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueBool:
		return json.Marshal(v.b)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON decodes a JSON string, number or boolean.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case string:
		*v = StringValue(val)
	case float64:
		*v = NumberValue(val)
	case bool:
		*v = BoolValue(val)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedValue, strings.TrimSpace(string(data)))
	}
	return nil
}
