package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Values is a name→Value mapping that preserves insertion order.
// Attribute and field order is a user-facing navigation order reported
// by the source file, so it must survive serialization untouched; plain
// Go maps would both lose the order and iterate non-deterministically.
type Values struct {
	keys   []string
	values map[string]Value
}

// NewValues creates an empty ordered mapping.
func NewValues() *Values {
	return &Values{values: make(map[string]Value)}
}

// Set stores a value under name, appending the key on first insert.
// Setting an existing key replaces the value but keeps its position.
func (m *Values) Set(name string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, exists := m.values[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.values[name] = v
}

// Get returns the value stored under name.
func (m *Values) Get(name string) (Value, bool) {
	if m == nil || m.values == nil {
		return Value{}, false
	}
	v, ok := m.values[name]
	return v, ok
}

// Keys returns the key names in insertion order.
// The returned slice is shared; callers must not modify it.
func (m *Values) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len returns the number of entries.
func (m *Values) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON encodes the mapping as a JSON object with keys in
// insertion order, giving byte-identical output for equal mappings.
func (m *Values) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyData, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyData)
		buf.WriteByte(':')
		valData, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		buf.Write(valData)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving its document order.
func (m *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	m.keys = nil
	m.values = make(map[string]Value)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		var v Value
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("value %q: %w", key, err)
		}
		m.Set(key, v)
	}

	// Consume closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
