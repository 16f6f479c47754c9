package record

// index is a string-keyed map that remembers insertion order so that every
// walk over the hierarchy is deterministic.
type index[V any] struct {
	keys []string
	m    map[string]V
}

func (ix *index[V]) get(key string) (V, bool) {
	v, ok := ix.m[key]
	return v, ok
}

// put stores v under key unless key is already present.
func (ix *index[V]) put(key string, v V) bool {
	if ix.m == nil {
		ix.m = make(map[string]V)
	}
	if _, exists := ix.m[key]; exists {
		return false
	}
	ix.m[key] = v
	ix.keys = append(ix.keys, key)
	return true
}

func (ix *index[V]) values() []V {
	out := make([]V, 0, len(ix.keys))
	for _, k := range ix.keys {
		out = append(out, ix.m[k])
	}
	return out
}

func (ix *index[V]) len() int {
	return len(ix.keys)
}
