package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Property is one entry of a PropertyBag.
type Property struct {
	Key   string
	Value Value
}

// PropertyBag is an ordered mapping of custom property names to scalar
// values. Keys are non-empty and unique; iteration follows insertion order.
//
// The zero PropertyBag is empty and ready to use. PropertyBag has value
// semantics only through Clone: copying the struct shares storage.
type PropertyBag struct {
	entries []Property
}

// NewPropertyBag builds a bag from props, validating each key.
func NewPropertyBag(props ...Property) (PropertyBag, error) {
	var b PropertyBag
	for _, p := range props {
		if err := b.Insert(p.Key, p.Value); err != nil {
			return PropertyBag{}, err
		}
	}
	return b, nil
}

// Insert adds a new property. Returns ErrEmptyPropertyKey for a blank key
// and ErrDuplicatePropertyKey if the key already exists.
func (b *PropertyBag) Insert(key string, v Value) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyPropertyKey
	}
	if b.index(key) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicatePropertyKey, key)
	}
	b.entries = append(b.entries, Property{Key: key, Value: v})
	return nil
}

// Set replaces the value for an existing key or appends a new entry.
// Blank keys are rejected with ErrEmptyPropertyKey.
func (b *PropertyBag) Set(key string, v Value) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyPropertyKey
	}
	if i := b.index(key); i >= 0 {
		b.entries[i].Value = v
		return nil
	}
	b.entries = append(b.entries, Property{Key: key, Value: v})
	return nil
}

// Get returns the value for key.
func (b PropertyBag) Get(key string) (Value, bool) {
	if i := b.index(key); i >= 0 {
		return b.entries[i].Value, true
	}
	return Value{}, false
}

// Has reports whether key is present.
func (b PropertyBag) Has(key string) bool {
	return b.index(key) >= 0
}

// Delete removes key, preserving the order of the remaining entries.
// Returns false if the key was absent.
func (b *PropertyBag) Delete(key string) bool {
	i := b.index(key)
	if i < 0 {
		return false
	}
	b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
	return true
}

// Keys returns the keys in insertion order.
func (b PropertyBag) Keys() []string {
	keys := make([]string, len(b.entries))
	for i, p := range b.entries {
		keys[i] = p.Key
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (b PropertyBag) Entries() []Property {
	out := make([]Property, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of properties.
func (b PropertyBag) Len() int { return len(b.entries) }

// Clone returns an independent copy.
func (b PropertyBag) Clone() PropertyBag {
	if b.entries == nil {
		return PropertyBag{}
	}
	return PropertyBag{entries: b.Entries()}
}

// Equal reports whether both bags hold the same entries in the same order.
func (b PropertyBag) Equal(other PropertyBag) bool {
	if len(b.entries) != len(other.entries) {
		return false
	}
	for i := range b.entries {
		if b.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

func (b PropertyBag) index(key string) int {
	for i, p := range b.entries {
		if p.Key == key {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes the bag as a JSON object with keys in insertion order.
func (b PropertyBag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range b.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		val, err := p.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
// A null document yields an empty bag.
func (b *PropertyBag) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = PropertyBag{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("property bag: expected object, got %v", tok)
	}

	var out PropertyBag
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("property bag: expected key, got %v", tok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
		if err := out.Insert(key, v); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*b = out
	return nil
}
