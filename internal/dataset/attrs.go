package dataset

import "fmt"

// Attrs is an insertion-ordered set of metadata key/value pairs. The zero
// value and a nil *Attrs are both empty and safe to read.
type Attrs struct {
	keys []string
	vals map[string]any
}

// NewAttrs returns an empty attribute set.
func NewAttrs() *Attrs {
	return &Attrs{vals: make(map[string]any)}
}

// Get returns the value stored under key.
func (a *Attrs) Get(key string) (any, bool) {
	if a == nil || a.vals == nil {
		return nil, false
	}
	v, ok := a.vals[key]
	return v, ok
}

// GetString returns the value under key rendered as text, or "" when absent.
func (a *Attrs) GetString(key string) string {
	v, ok := a.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetBool reports whether key holds the boolean true.
func (a *Attrs) GetBool(key string) bool {
	v, ok := a.Get(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Set stores v under key, keeping the original position of existing keys.
func (a *Attrs) Set(key string, v any) {
	if a.vals == nil {
		a.vals = make(map[string]any)
	}
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = v
}

// Delete removes key if present.
func (a *Attrs) Delete(key string) {
	if a == nil {
		return
	}
	if _, ok := a.vals[key]; !ok {
		return
	}
	delete(a.vals, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of keys.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns a copy whose key order and values are independent of a.
// Slice values are shared; attribute values are treated as immutable.
func (a *Attrs) Clone() *Attrs {
	out := NewAttrs()
	if a == nil {
		return out
	}
	for _, k := range a.keys {
		out.Set(k, a.vals[k])
	}
	return out
}
