// file: internal/models/tagset.go
// version: 1.0.0
// guid: 7c2d3e4f-5a6b-7c8d-9e0f-1a2b3c4d5e6f

package models

// TagSet is an insertion-ordered mapping from container tag key to string
// value. Later Set calls overwrite earlier ones without disturbing the
// original position, so a build that layers tag groups left to right stays
// deterministic and the final-write-wins semantics are preserved exactly.
type TagSet struct {
	keys   []string
	values map[string]string
}

// NewTagSet returns an empty TagSet.
func NewTagSet() *TagSet {
	return &TagSet{values: make(map[string]string)}
}

// Set stores value under key, overwriting any previous value.
func (t *TagSet) Set(key, value string) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// Get returns the value for key and whether it is present.
func (t *TagSet) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Has reports whether key is present.
func (t *TagSet) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Keys returns the keys in first-insertion order.
func (t *TagSet) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of keys.
func (t *TagSet) Len() int {
	return len(t.keys)
}

// Merge copies every key of other into t, preserving other's order for keys
// new to t and overwriting values for keys t already holds.
func (t *TagSet) Merge(other *TagSet) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		t.Set(k, other.values[k])
	}
}
