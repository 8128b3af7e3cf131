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
	"github.com/golang/glog"
)

// PackageMarkerChecker answers whether dir contains a package-definition
// file (named BUILD), used by isDeclaredIn's upward walk to stop a declared
// dir from reaching across a package boundary.
type PackageMarkerChecker interface {
	HasPackageMarker(dir PathFragment) bool
}

// ValidationContext bundles what ValidateInclusions needs beyond the
// action itself.
type ValidationContext struct {
	Expander           TreeArtifactExpander
	MiddlemanGroups    map[ActionKey][]Artifact
	BuiltInIncludeDirs []PathFragment
	PackageMarkers     PackageMarkerChecker
	Features           FeatureSet
	Label              string
}

// packageMarkerCache memoizes PackageMarkerChecker lookups for a single
// action execution, so a deep declared-dir walk never stats the same
// directory twice.
type packageMarkerCache struct {
	inner PackageMarkerChecker
	cache map[string]bool
}

func newPackageMarkerCache(inner PackageMarkerChecker) *packageMarkerCache {
	return &packageMarkerCache{inner: inner, cache: make(map[string]bool)}
}

func (c *packageMarkerCache) has(dir PathFragment) bool {
	if c.inner == nil {
		return false
	}
	key := dir.String()
	if v, ok := c.cache[key]; ok {
		return v
	}
	v := c.inner.HasPackageMarker(dir)
	c.cache[key] = v
	return v
}

// ValidateInclusions checks that every header actually read by the compiler
// (inputsForValidation) is either in the allowed set
// (mandatory/declared/prunable), lies under an ignored (built-in or,
// unless StrictSystemIncludes, context system-include) directory, or is
// declared via a declared include dir honoring package boundaries.
func ValidateInclusions(inputsForValidation []Artifact, a *CompileAction, ctx ValidationContext) error {
	if a.CcContext.HeadersCheckingMode == HeadersCheckingOff {
		return nil
	}

	allowedRaw := append([]Artifact{}, a.MandatoryInputs...)
	allowedRaw = append(allowedRaw, a.CcContext.DeclaredIncludeSrcs...)
	allowedRaw = append(allowedRaw, a.AdditionalPrunableHeaders...)
	allowedRaw, err := ExpandTrees(ctx.Expander, allowedRaw)
	if err != nil {
		return err
	}
	allowedRaw = ExpandMiddlemen(ctx.MiddlemanGroups, allowedRaw)
	allowed := make(map[string]bool, len(allowedRaw))
	for _, a := range allowedRaw {
		allowed[a.ExecPath()] = true
	}

	ignoreDirs := append([]PathFragment{}, ctx.BuiltInIncludeDirs...)
	if !ctx.Features.StrictSystemIncludes {
		ignoreDirs = append(ignoreDirs, a.CcContext.SystemIncludeDirs...)
	}

	pmc := newPackageMarkerCache(ctx.PackageMarkers)

	var problems []string
	for _, in := range inputsForValidation {
		if in.IsModule() {
			continue
		}
		if allowed[in.ExecPath()] {
			continue
		}
		if in.Path.StartsWithAny(ignoreDirs) {
			continue
		}
		ok := isDeclaredIn(in, a.CcContext.DeclaredIncludeDirs, pmc)
		if ctx.Features.ValidationDebugWarn {
			glog.Warningf("strictdeps: %s declared=%v (mode=%d)", in.ExecPath(), ok, a.CcContext.HeadersCheckingMode)
		}
		if !ok {
			problems = append(problems, in.ExecPath())
		}
	}
	if len(problems) > 0 {
		return &UndeclaredInclusionError{
			Label:  ctx.Label,
			Source: a.SourceFile.ExecPath(),
			Paths:  problems,
			Dirs:   pathFragmentStrings(a.CcContext.DeclaredIncludeDirs),
			Srcs:   artifactExecPaths(a.CcContext.DeclaredIncludeSrcs),
		}
	}
	return nil
}

// isDeclaredIn decides whether artifact is covered by one of declaredDirs,
// walking up toward the source root and refusing to cross a package
// boundary along the way.
func isDeclaredIn(artifact Artifact, declaredDirs []PathFragment, pmc *packageMarkerCache) bool {
	// Step 1: derived artifacts not under an include link tree are never
	// declared. We approximate "include link tree" as "has no Owner", i.e.
	// a plain derived artifact outside any include-symlink forest is never
	// accepted via a declared dir (it must be in the allowed set instead).
	if artifact.Kind == KindDerived && artifact.Owner != "" {
		return false
	}

	includeDir := artifact.Path.Dir()

	// Step 2: accept if includeDir is empty or directly declared.
	if includeDir.IsEmpty() {
		return true
	}
	for _, d := range declaredDirs {
		if d.String() == includeDir.String() {
			return true
		}
	}

	// Step 3: "**" recursive declared dirs.
	for _, d := range declaredDirs {
		if rec, ok := cutDeclaredRecursiveSuffix(d.String()); ok {
			if rec == "" || includeDir.HasPrefix(NewPathFragment(rec)) {
				return true
			}
		}
	}

	// Step 4: walk up from includeDir toward the source root, remembering
	// ancestors; accept at the first declared ancestor only if no
	// remembered ancestor (a sub-package boundary) contains a BUILD file.
	var toCheck []PathFragment
	cur := includeDir
	for !cur.IsEmpty() {
		toCheck = append(toCheck, cur)
		for _, d := range declaredDirs {
			if d.String() == cur.String() {
				for _, anc := range toCheck[:len(toCheck)-1] {
					if pmc.has(anc) {
						return false
					}
				}
				return true
			}
		}
		cur = cur.Dir()
	}

	// Step 5: root reached without acceptance.
	return false
}

func pathFragmentStrings(ps []PathFragment) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func artifactExecPaths(as []Artifact) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ExecPath()
	}
	return out
}
