// Copyright © 2024 The LISPC authors

package compilertest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luthersystems/lispc/lisp"
)

// AssertMapData runs tests to ensure that m satisfies the constraints of an
// ordered map.  The following properties are tested by AssertMapData:
//
//	The m.Keys, m.Entries and m.KVs produce lists with the expected length,
//	m.Len()
//
//	Repeated calls to m.Entries() return equal lists of pairs
//
//	The lists returned by m.Keys(), m.Entries() and m.KVs() have consistent
//	elements and order.
//
//	Calling m.Get() with a key from m.Entries() returns a value consistent
//	with that entry.
//
// AssertMapData does not test insertions or deletions.  m must already be
// populated with values.
func AssertMapData(t *testing.T, m *lisp.MapData) bool {
	t.Helper()
	if !assert.NotEqual(t, 0, m.Len(), "Cannot test an empty map") {
		return false
	}
	entries := m.Entries()
	if !assert.Len(t, entries, m.Len(), "Entries") {
		return false
	}
	for n := 0; n < 3; n++ {
		again := m.Entries()
		for i := range entries {
			if !assert.Same(t, entries[i], again[i], "Entries not fixed at index %d", i) {
				return false
			}
		}
	}
	keys := m.Keys()
	kvs := m.KVs()
	if !assert.Len(t, keys, m.Len(), "Keys") || !assert.Len(t, kvs, 2*m.Len(), "KVs") {
		return false
	}
	for i, e := range entries {
		if !assert.True(t, e.Key.Equal(keys[i]), "Keys and Entries not consistent at index %d -- expect: %v got: %v", i, e.Key, keys[i]) {
			return false
		}
		if !assert.True(t, e.Key.Equal(kvs[2*i]) && e.Val.Equal(kvs[2*i+1]), "KVs and Entries not consistent at index %d", i) {
			return false
		}
		v, ok := m.Get(e.Key)
		if !assert.True(t, ok, "Get missing key %v", e.Key) {
			return false
		}
		if !assert.True(t, e.Val.Equal(v), "Entry for key %v not consistent at index %d -- expected: %v got: %v", e.Key, i, e.Val, v) {
			return false
		}
	}
	return true
}
