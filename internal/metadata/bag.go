package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
)

// Bag is an ordered key/value property map. Values are strings, float64,
// int64, bool, nested *Bag, or []any of those. The zero value is not usable;
// create bags with NewBag.
type Bag struct {
	keys   []string
	values map[string]any
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{values: make(map[string]any)}
}

// Len reports the number of keys.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	if b == nil {
		return nil
	}
	return slices.Clone(b.keys)
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.values[key]
	return v, ok
}

// Set stores value under key, keeping the original position when the key
// already exists. Integer and float widths are normalized to int64/float64.
func (b *Bag) Set(key string, value any) {
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = normalize(value)
}

// Delete removes key if present.
func (b *Bag) Delete(key string) {
	if _, ok := b.values[key]; !ok {
		return
	}
	delete(b.values, key)
	b.keys = slices.DeleteFunc(b.keys, func(k string) bool { return k == key })
}

// String returns the string stored under key.
func (b *Bag) String(key string) (string, bool) {
	v, ok := b.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer stored under key.
func (b *Bag) Int(key string) (int64, bool) {
	v, ok := b.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	default:
		return 0, false
	}
}

// Bool returns the boolean stored under key.
func (b *Bag) Bool(key string) (bool, bool) {
	v, ok := b.Get(key)
	if !ok {
		return false, false
	}
	flag, ok := v.(bool)
	return flag, ok
}

// Floats returns the numeric array stored under key.
func (b *Bag) Floats(key string) ([]float64, bool) {
	v, ok := b.Get(key)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			out = append(out, n)
		case int64:
			out = append(out, float64(n))
		default:
			return nil, false
		}
	}
	return out, true
}

// Sub returns the nested bag stored under key, or nil.
func (b *Bag) Sub(key string) *Bag {
	v, ok := b.Get(key)
	if !ok {
		return nil
	}
	sub, _ := v.(*Bag)
	return sub
}

// EnsureSub returns the nested bag under key, creating it when absent or when
// the existing value is not a bag.
func (b *Bag) EnsureSub(key string) *Bag {
	if sub := b.Sub(key); sub != nil {
		return sub
	}
	sub := NewBag()
	b.Set(key, sub)
	return sub
}

// Clone returns a deep copy. Nested bags and arrays are never shared.
func (b *Bag) Clone() *Bag {
	if b == nil {
		return nil
	}
	out := &Bag{
		keys:   slices.Clone(b.keys),
		values: make(map[string]any, len(b.values)),
	}
	for k, v := range b.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// Equal reports whether both bags hold the same keys, in the same order, with
// equal values.
func (b *Bag) Equal(other *Bag) bool {
	if b.Len() != other.Len() {
		return false
	}
	if b == nil || other == nil {
		return b.Len() == 0 && other.Len() == 0
	}
	if !slices.Equal(b.keys, other.keys) {
		return false
	}
	for _, k := range b.keys {
		if !valuesEqual(b.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the bag as a JSON object preserving key order.
func (b *Bag) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(b.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func normalize(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case float32:
		return float64(v)
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	default:
		return value
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case *Bag:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []byte:
		return slices.Clone(val)
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case *Bag:
		bv, ok := b.(*Bag)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
