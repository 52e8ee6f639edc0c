// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package sets implement a set type as a `map[T]struct{}`, with the few operations needed to traverse
// graphs and check names.
package sets

import (
	"cmp"
	"maps"
	"slices"
)

// Set implements a Set for the key type T.
type Set[T comparable] map[T]struct{}

// Make returns an empty Set of the given type. Size is optional, and if given
// will reserve the expected size.
func Make[T comparable](size ...int) Set[T] {
	if len(size) == 0 {
		return make(Set[T])
	}
	return make(Set[T], size[0])
}

// MakeWith creates a Set[T] with the given elements inserted.
func MakeWith[T comparable](elements ...T) Set[T] {
	s := Make[T](len(elements))
	s.Insert(elements...)
	return s
}

// KeysOf returns the set of keys of m.
func KeysOf[K comparable, V any](m map[K]V) Set[K] {
	s := Make[K](len(m))
	for key := range m {
		s[key] = struct{}{}
	}
	return s
}

// Has returns true if Set s has the given key.
func (s Set[T]) Has(key T) bool {
	_, found := s[key]
	return found
}

// Insert keys into set.
func (s Set[T]) Insert(keys ...T) {
	for _, key := range keys {
		s[key] = struct{}{}
	}
}

// Visit inserts key and reports whether it was not in the set before.
// It is the usual first step of a graph traversal.
func (s Set[T]) Visit(key T) (isNew bool) {
	if s.Has(key) {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Sub returns a new set with the elements of s not in s2.
func (s Set[T]) Sub(s2 Set[T]) Set[T] {
	diff := Make[T]()
	for key := range s {
		if !s2.Has(key) {
			diff[key] = struct{}{}
		}
	}
	return diff
}

// Sorted returns the elements of s in increasing order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	return slices.Sorted(maps.Keys(s))
}
