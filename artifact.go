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

import (
	"strings"
	"sync"
)

// ArtifactKind classifies what an Artifact stands for in the build graph.
type ArtifactKind int

const (
	KindSource ArtifactKind = iota
	KindDerived
	KindTree
	KindMiddleman
)

func (k ArtifactKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindDerived:
		return "derived"
	case KindTree:
		return "tree"
	case KindMiddleman:
		return "middleman"
	default:
		return "unknown"
	}
}

// Root is either the source root or one of the derived output roots. Two
// artifacts that share a PathFragment but differ in Root are distinct.
type Root struct {
	Name     string
	IsSource bool
}

// SourceRoot is the well-known root for undeclared, checked-in sources.
var SourceRoot = Root{Name: "", IsSource: true}

// PathFragment is a normalized, slash-separated relative path. It is never
// absolute and never contains "." segments; ".." segments are preserved
// verbatim (a single leading ".." denotes a sibling repository, per
// verifyIncludeDirPath).
type PathFragment struct {
	s string
}

// NewPathFragment interns and normalizes p into a PathFragment.
func NewPathFragment(p string) PathFragment {
	return PathFragment{s: internPathFragment(cleanSlashPath(p))}
}

// pathFragments dedupes the normalized strings backing every PathFragment, so
// two equal paths produced from unrelated inputs share one underlying string
// and compare/hash cheaply.
var pathFragments = struct {
	mu sync.Mutex
	m  map[string]string
}{m: make(map[string]string)}

func internPathFragment(s string) string {
	pathFragments.mu.Lock()
	defer pathFragments.mu.Unlock()
	if v, ok := pathFragments.m[s]; ok {
		return v
	}
	pathFragments.m[s] = s
	return s
}

// cleanSlashPath normalizes a path the way kati's filepathClean normalizes
// exec-paths: slash-joined, "." segments dropped, without touching ".."
// segments (those carry meaning for sibling-repository references) and
// without ever consulting the filesystem.
func cleanSlashPath(p string) string {
	if p == "" {
		return "."
	}
	segs := strings.Split(p, "/")
	out := segs[:0]
	for _, s := range segs {
		if s == "" || s == "." {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return "."
	}
	return strings.Join(out, "/")
}

func (p PathFragment) String() string { return p.s }

// IsEmpty reports whether p denotes the root directory itself.
func (p PathFragment) IsEmpty() bool { return p.s == "." || p.s == "" }

// Dir returns the parent directory of p, or the empty PathFragment ("." )
// if p has no parent.
func (p PathFragment) Dir() PathFragment {
	i := strings.LastIndexByte(p.s, '/')
	if i < 0 {
		return PathFragment{s: "."}
	}
	return NewPathFragment(p.s[:i])
}

// HasPrefix reports whether p lies at or under dir, comparing whole path
// segments (so "a/b" is not considered a prefix of "a/bb").
func (p PathFragment) HasPrefix(dir PathFragment) bool {
	if dir.IsEmpty() {
		return true
	}
	ds := dir.s
	ps := p.s
	if ps == ds {
		return true
	}
	return strings.HasPrefix(ps, ds+"/")
}

// StartsWithAny reports whether p lies under any of dirs, testing each dir
// in turn with HasPrefix.
func (p PathFragment) StartsWithAny(dirs []PathFragment) bool {
	for _, d := range dirs {
		if p.HasPrefix(d) {
			return true
		}
	}
	return false
}

// Segments returns the '/'-delimited components of p.
func (p PathFragment) Segments() []string {
	if p.IsEmpty() {
		return nil
	}
	return strings.Split(p.s, "/")
}

// ActionKey identifies the action that owns a derived artifact. It is
// opaque to this package beyond equality and string-rendering.
type ActionKey string

// Artifact is an identified file in the build graph.
type Artifact struct {
	Path  PathFragment
	Root  Root
	Owner ActionKey // empty for source artifacts
	Kind  ArtifactKind
}

// ExecPath is the path under the execution root at which the compiler will
// find this artifact.
func (a Artifact) ExecPath() string {
	if a.Root.Name == "" {
		return a.Path.String()
	}
	return a.Root.Name + "/" + a.Path.String()
}

func (a Artifact) String() string {
	return a.ExecPath()
}

// IsSourceFile reports whether a is a checked-in source, as opposed to an
// output of some other action.
func (a Artifact) IsSourceFile() bool { return a.Kind == KindSource }

// IsModule reports whether a is a precompiled header-module output.
func (a Artifact) IsModule() bool {
	return strings.HasSuffix(a.Path.String(), ".pcm")
}

// TreeArtifactExpander resolves a KindTree artifact into its children. The
// expansion is only known at execution time, once the compiler (or an
// upstream action) has actually populated the tree.
type TreeArtifactExpander interface {
	Expand(tree Artifact) ([]Artifact, error)
}

// ExpandTrees replaces every KindTree artifact in as with its children,
// using expander, leaving every other artifact untouched. The first
// expansion error stops the walk and is returned with a nil slice.
func ExpandTrees(expander TreeArtifactExpander, as []Artifact) ([]Artifact, error) {
	var out []Artifact
	for _, a := range as {
		if a.Kind != KindTree {
			out = append(out, a)
			continue
		}
		children, err := expander.Expand(a)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	return out, nil
}

// ExpandMiddlemen replaces every KindMiddleman artifact in as with its
// grouped members (themselves supplied by groups), transparently. Used by
// the strict-deps validator, which needs the flattened membership rather
// than the middleman stand-in.
func ExpandMiddlemen(groups map[ActionKey][]Artifact, as []Artifact) []Artifact {
	var out []Artifact
	for _, a := range as {
		if a.Kind != KindMiddleman {
			out = append(out, a)
			continue
		}
		out = append(out, groups[a.Owner]...)
	}
	return out
}

// UnderAnyPrefix reports whether a's root-relative Path lies under any of the given
// PathFragment prefixes (used for built-in / system include-dir filtering).
func (a Artifact) UnderAnyPrefix(prefixes []PathFragment) bool {
	return a.Path.StartsWithAny(prefixes)
}
