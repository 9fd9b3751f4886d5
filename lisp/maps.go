// Copyright © 2024 The LISPC authors

package lisp

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// MapData is the storage behind LMap and LTable values.  Keys are compared
// by value and iteration follows insertion order.
type MapData struct {
	entries *linkedhashmap.Map
}

// MapEntry is a key-value pair stored in a MapData.
type MapEntry struct {
	Key *LVal
	Val *LVal
}

// NewMapData returns an empty MapData.
func NewMapData() *MapData {
	return &MapData{entries: linkedhashmap.New()}
}

func mapFromKVs(kvs []*LVal) *MapData {
	m := NewMapData()
	for i := 0; i < len(kvs); i += 2 {
		val := Nil()
		if i+1 < len(kvs) {
			val = kvs[i+1]
		}
		m.Set(kvs[i], val)
	}
	return m
}

// mapKey returns the string identifying key.  The printed form of a value
// distinguishes every type so it can serve as a hash key.
func mapKey(key *LVal) string {
	return key.String()
}

// Len returns the number of entries in m.
func (m *MapData) Len() int {
	if m == nil {
		return 0
	}
	return m.entries.Size()
}

// Get returns the value stored under key.
func (m *MapData) Get(key *LVal) (*LVal, bool) {
	if m == nil {
		return nil, false
	}
	x, ok := m.entries.Get(mapKey(key))
	if !ok {
		return nil, false
	}
	return x.(*MapEntry).Val, true
}

// Has returns true if m contains key.
func (m *MapData) Has(key *LVal) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores val under key.  Replacing a value keeps the original position of
// the key.
func (m *MapData) Set(key *LVal, val *LVal) {
	k := mapKey(key)
	if x, ok := m.entries.Get(k); ok {
		x.(*MapEntry).Val = val
		return
	}
	m.entries.Put(k, &MapEntry{Key: key, Val: val})
}

// Delete removes key from m.
func (m *MapData) Delete(key *LVal) {
	m.entries.Remove(mapKey(key))
}

// Entries returns the entries of m in insertion order.
func (m *MapData) Entries() []*MapEntry {
	if m == nil {
		return nil
	}
	values := m.entries.Values()
	entries := make([]*MapEntry, len(values))
	for i, x := range values {
		entries[i] = x.(*MapEntry)
	}
	return entries
}

// Keys returns the keys of m in insertion order.
func (m *MapData) Keys() []*LVal {
	entries := m.Entries()
	keys := make([]*LVal, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// KVs returns the entries of m flattened into alternating keys and values.
func (m *MapData) KVs() []*LVal {
	entries := m.Entries()
	kvs := make([]*LVal, 0, 2*len(entries))
	for _, e := range entries {
		kvs = append(kvs, e.Key, e.Val)
	}
	return kvs
}

// Copy returns a copy of m.  Keys and values are copied deeply.
func (m *MapData) Copy() *MapData {
	cp := NewMapData()
	for _, e := range m.Entries() {
		cp.Set(e.Key.Copy(), e.Val.Copy())
	}
	return cp
}

// Equal returns true if m and other hold equal values under the same keys.
// Order is not significant.
func (m *MapData) Equal(other *MapData) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, e := range m.Entries() {
		x, ok := other.Get(e.Key)
		if !ok || !e.Val.Equal(x) {
			return false
		}
	}
	return true
}

// Merge stores every entry of other into m.
func (m *MapData) Merge(other *MapData) {
	for _, e := range other.Entries() {
		m.Set(e.Key, e.Val)
	}
}
