package dbbind

// KeyValues is an ordered key/value source. Range visits entries in order
// until fn returns false.
type KeyValues interface {
	Range(fn func(key string, value any) bool)
}

// Bag is an insertion-ordered set of named values. Setting an existing key
// replaces its value and keeps its position.
type Bag struct {
	index  map[string]int
	keys   []string
	values []any
}

// NewBag creates a bag from alternating key/value pairs, e.g.
// NewBag("Age", 30, "Name", "Ann"). It panics on an odd count or a non-string
// key.
func NewBag(kv ...any) *Bag {
	if len(kv)%2 != 0 {
		panic("dbbind: NewBag requires key/value pairs")
	}
	b := &Bag{index: make(map[string]int, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("dbbind: NewBag keys must be strings")
		}
		b.Set(key, kv[i+1])
	}
	return b
}

// Set adds or replaces a value.
func (b *Bag) Set(key string, value any) *Bag {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[key]; ok {
		b.values[i] = value
		return b
	}
	b.index[key] = len(b.keys)
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
	return b
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (any, bool) {
	i, ok := b.index[key]
	if !ok {
		return nil, false
	}
	return b.values[i], true
}

// Len returns the number of entries.
func (b *Bag) Len() int { return len(b.keys) }

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Range visits entries in insertion order.
func (b *Bag) Range(fn func(key string, value any) bool) {
	for i, k := range b.keys {
		if !fn(k, b.values[i]) {
			return
		}
	}
}
