// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ccompile

import "sync"

// Order selects the traversal order used when flattening a NestedSet.
type Order int

const (
	// OrderStable preserves each child-set's own internal order and visits
	// direct elements before nested children, producing the same list every
	// time for a given structure.
	OrderStable Order = iota
	// OrderCompile is link order with duplicates removed keeping the last
	// occurrence, matching a linker's "last definition wins" traversal.
	OrderCompile
)

// NestedSet is a possibly-shared DAG of string elements (exec-paths,
// digests, …) with a lazily-computed, memoized flattening. One
// mutual-exclusion region guards the lazy initialization; the memo is then
// immutable.
type NestedSet struct {
	order    Order
	direct   []string
	children []*NestedSet

	once  sync.Once
	flat  []string
}

// NewNestedSet builds a leaf-and-children set. direct elements are this
// set's own members; children are nested sub-sets unioned in per order.
func NewNestedSet(order Order, direct []string, children ...*NestedSet) *NestedSet {
	return &NestedSet{order: order, direct: direct, children: children}
}

// ToList returns the flattened, deterministic element list. The first call
// computes and memoizes it; subsequent calls replay the memo without
// re-visiting any child.
func (s *NestedSet) ToList() []string {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		switch s.order {
		case OrderCompile:
			s.flat = flattenCompileOrder(s)
		default:
			s.flat = flattenStableOrder(s)
		}
	})
	return s.flat
}

func flattenStableOrder(s *NestedSet) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(e string) {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	for _, e := range s.direct {
		add(e)
	}
	for _, c := range s.children {
		for _, e := range c.ToList() {
			add(e)
		}
	}
	return out
}

// flattenCompileOrder visits children before direct elements (link order)
// and keeps only the last occurrence of a duplicate, the way a linker
// resolves repeated symbols from later archives.
func flattenCompileOrder(s *NestedSet) []string {
	var ordered []string
	lastIdx := make(map[string]int)
	visit := func(e string) {
		if i, ok := lastIdx[e]; ok {
			ordered[i] = ""
		}
		lastIdx[e] = len(ordered)
		ordered = append(ordered, e)
	}
	for _, c := range s.children {
		for _, e := range c.ToList() {
			visit(e)
		}
	}
	for _, e := range s.direct {
		visit(e)
	}
	out := make([]string, 0, len(ordered))
	for _, e := range ordered {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
