// Copyright © 2024 The LISPC authors

package lisp

import (
	"strconv"
	"sync/atomic"
)

var gensymCounter int64

// Gensym returns a fresh symbol named G__N.  Generated symbols carry no
// source location.
func Gensym() *LVal {
	return GensymPrefix("G")
}

// GensymPrefix returns a fresh symbol whose name begins with prefix.
func GensymPrefix(prefix string) *LVal {
	n := atomic.AddInt64(&gensymCounter, 1)
	return Symbol(prefix + "__" + strconv.FormatInt(n, 10))
}
