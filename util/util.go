// Package util holds small generic helpers shared across the diff engine.
package util

import (
	"iter"
	"sort"
)

// TransformSlice applies fn to each element of in and returns the results in
// the same order.
func TransformSlice[T any, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// CanonicalMapIter yields the entries of m in sorted key order. Any pass over
// a map that could affect emitted op order must go through this (or an
// equivalent explicit sort) instead of ranging over the map directly, since
// Go's map iteration order is randomized and the engine must produce
// byte-identical output across runs on the same inputs.
func CanonicalMapIter[T any](m map[string]T) iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clamp01 restricts f to the closed interval [0, 1].
func Clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
