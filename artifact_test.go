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

import "testing"

func TestPathFragmentClean(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "."},
		{".", "."},
		{"a/b", "a/b"},
		{"a//b", "a/b"},
		{"a/./b", "a/b"},
		{"../a/b", "../a/b"},
		{"a/b/", "a/b"},
	}
	for _, tt := range tests {
		if got := NewPathFragment(tt.in).String(); got != tt.want {
			t.Errorf("NewPathFragment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathFragmentHasPrefix(t *testing.T) {
	tests := []struct {
		p, dir string
		want   bool
	}{
		{"a/b/c.h", "a/b", true},
		{"a/b/c.h", "a", true},
		{"a/bb/c.h", "a/b", false},
		{"a/b.h", "a/b", false},
		{"a/b", ".", true},
	}
	for _, tt := range tests {
		got := NewPathFragment(tt.p).HasPrefix(NewPathFragment(tt.dir))
		if got != tt.want {
			t.Errorf("HasPrefix(%q, %q) = %v, want %v", tt.p, tt.dir, got, tt.want)
		}
	}
}

func TestArtifactExecPath(t *testing.T) {
	src := Artifact{Path: NewPathFragment("x/y.h"), Root: SourceRoot}
	if got, want := src.ExecPath(), "x/y.h"; got != want {
		t.Errorf("ExecPath() = %q, want %q", got, want)
	}
	derived := Artifact{Path: NewPathFragment("x/y.o"), Root: Root{Name: "bazel-out/k8-fastbuild/bin"}}
	if got, want := derived.ExecPath(), "bazel-out/k8-fastbuild/bin/x/y.o"; got != want {
		t.Errorf("ExecPath() = %q, want %q", got, want)
	}
}

func TestArtifactIsModule(t *testing.T) {
	if !(Artifact{Path: NewPathFragment("foo.pcm")}).IsModule() {
		t.Error("foo.pcm should be a module")
	}
	if (Artifact{Path: NewPathFragment("foo.h")}).IsModule() {
		t.Error("foo.h should not be a module")
	}
}

type fakeTreeExpander map[string][]Artifact

func (f fakeTreeExpander) Expand(tree Artifact) ([]Artifact, error) {
	return f[tree.ExecPath()], nil
}

func TestExpandTrees(t *testing.T) {
	tree := Artifact{Path: NewPathFragment("gen"), Kind: KindTree}
	child := Artifact{Path: NewPathFragment("gen/a.h"), Kind: KindDerived}
	expander := fakeTreeExpander{"gen": {child}}

	out, err := ExpandTrees(expander, []Artifact{tree, {Path: NewPathFragment("b.h")}})
	if err != nil {
		t.Fatalf("ExpandTrees: %v", err)
	}
	if len(out) != 2 || out[0].ExecPath() != "gen/a.h" || out[1].ExecPath() != "b.h" {
		t.Errorf("ExpandTrees = %+v", out)
	}
}

func TestExpandMiddlemen(t *testing.T) {
	mm := Artifact{Kind: KindMiddleman, Owner: "group1"}
	groups := map[ActionKey][]Artifact{
		"group1": {{Path: NewPathFragment("a.h")}, {Path: NewPathFragment("b.h")}},
	}
	out := ExpandMiddlemen(groups, []Artifact{mm, {Path: NewPathFragment("c.h")}})
	if len(out) != 3 {
		t.Fatalf("ExpandMiddlemen = %+v, want 3 artifacts", out)
	}
}
