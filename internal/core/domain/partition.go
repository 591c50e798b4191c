package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Partition is the context scoping one independently-checkpointed sync
// unit: an ordered key/value mapping propagated from a parent record to
// its child stream (e.g. {list_id, list_name} for one list). A stream
// with no parent syncs under the zero-value root partition.
type Partition struct {
	keys   []string
	values map[string]any
}

// NewPartition creates an empty partition.
func NewPartition() Partition {
	return Partition{values: make(map[string]any)}
}

// Set stores a key/value pair, preserving first-insertion order.
func (p *Partition) Set(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key and whether it is present.
func (p Partition) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GetString returns the value for key rendered as a string.
func (p Partition) GetString(key string) string {
	v, ok := p.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Len returns the number of keys.
func (p Partition) Len() int {
	return len(p.keys)
}

// IsRoot reports whether this is the implicit root partition.
func (p Partition) IsRoot() bool {
	return len(p.keys) == 0
}

// Keys returns the key names in order.
func (p Partition) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Clone returns a copy of the partition.
func (p Partition) Clone() Partition {
	c := Partition{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]any, len(p.values)),
	}
	copy(c.keys, p.keys)
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// Project returns a partition restricted to the given keys, in the
// given order. Keys absent from the partition are omitted.
func (p Partition) Project(keys []string) Partition {
	out := NewPartition()
	for _, k := range keys {
		if v, ok := p.values[k]; ok {
			out.Set(k, v)
		}
	}
	return out
}

// Key returns the canonical serialised form of the partition, used to
// index bookmark entries. Two partitions with the same pairs in the
// same order share a key.
func (p Partition) Key() string {
	b, err := p.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", p.values)
	}
	return string(b)
}

// Equal reports whether both partitions hold the same pairs in the
// same order.
func (p Partition) Equal(other Partition) bool {
	return p.Key() == other.Key()
}

// MarshalJSON serialises the partition as a JSON object preserving
// key order.
func (p Partition) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal partition key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a partition from a JSON object, preserving
// the key order of the input document.
func (p *Partition) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("partition: expected JSON object, got %v", tok)
	}

	*p = NewPartition()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("partition: non-string key %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		p.Set(key, normaliseJSONValue(value))
	}

	// Consume closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// normaliseJSONValue converts json.Number tokens into the value types
// the rest of the system expects: int64 when integral, float64
// otherwise.
func normaliseJSONValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
