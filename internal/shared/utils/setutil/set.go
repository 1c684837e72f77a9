// Package setutil provides a small generic set for id collections.
package setutil

import (
	"cmp"
	"slices"
)

// Set keeps insertion-independent membership; Sorted gives a stable order
// for payloads and assertions.
type Set[T cmp.Ordered] struct {
	items map[T]struct{}
}

func New[T cmp.Ordered](items ...T) *Set[T] {
	s := &Set[T]{items: make(map[T]struct{}, len(items))}
	s.AddAll(items)
	return s
}

func (s *Set[T]) Add(v T) {
	s.items[v] = struct{}{}
}

func (s *Set[T]) AddAll(vs []T) {
	for _, v := range vs {
		s.items[v] = struct{}{}
	}
}

func (s *Set[T]) Has(v T) bool {
	_, ok := s.items[v]
	return ok
}

func (s *Set[T]) Len() int {
	return len(s.items)
}

func (s *Set[T]) Sorted() []T {
	out := make([]T, 0, len(s.items))
	for v := range s.items {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
