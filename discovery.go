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

// ArtifactResolver maps a path discovered in a .d file or /showIncludes
// note back to a known Artifact, either by exec-path or by source-root
// relative path. It returns ok=false when the path names nothing this
// build graph knows about.
type ArtifactResolver interface {
	Resolve(path string) (Artifact, bool)
}

// MapArtifactResolver is a simple map-backed ArtifactResolver, sufficient
// for tests and for a CompileAction's own known-input set.
type MapArtifactResolver map[string]Artifact

func (m MapArtifactResolver) Resolve(path string) (Artifact, bool) {
	a, ok := m[path]
	return a, ok
}

// DiscoveryContext bundles what the header-discovery engine needs to
// resolve a raw dependency-file path list into Artifacts.
type DiscoveryContext struct {
	Resolver          ArtifactResolver
	BuiltInPrefixes   []PathFragment
	TreeArtifacts     []Artifact // KindTree artifacts whose membership covers unresolved paths
	ValidationEnabled bool
	SourceLabel       string // for error messages
}

// DiscoveredInputs is the result of resolving a raw dependency path list.
type DiscoveredInputs struct {
	Artifacts []Artifact
}

// Resolve maps each path to a known artifact; drops it if it falls under a
// built-in system-include prefix; otherwise, if it lies beneath a known
// tree artifact, accepts it as covered by that tree; otherwise, if
// validation is enabled, fails with an UndeclaredInclusionError; otherwise
// skips the path silently (discovery without validation is best-effort).
func Resolve(paths []string, ctx DiscoveryContext) (DiscoveredInputs, error) {
	var out []Artifact
	var unresolved []string
	for _, p := range paths {
		if a, ok := ctx.Resolver.Resolve(p); ok {
			out = append(out, a)
			continue
		}
		pf := NewPathFragment(p)
		if pf.StartsWithAny(ctx.BuiltInPrefixes) {
			glog.V(2).Infof("discovery: dropping built-in include %s", p)
			continue
		}
		if coveredByTree(pf, ctx.TreeArtifacts) {
			continue
		}
		if ctx.ValidationEnabled {
			unresolved = append(unresolved, p)
			continue
		}
		glog.V(1).Infof("discovery: %s did not resolve to a known artifact; skipping (validation disabled)", p)
	}
	if len(unresolved) > 0 {
		return DiscoveredInputs{}, &UndeclaredInclusionError{
			Label:  ctx.SourceLabel,
			Source: ctx.SourceLabel,
			Paths:  unresolved,
		}
	}
	return DiscoveredInputs{Artifacts: out}, nil
}

func coveredByTree(p PathFragment, trees []Artifact) bool {
	for _, t := range trees {
		if p.HasPrefix(t.Path) {
			return true
		}
	}
	return false
}

// verifyIncludeDirPath requires that an include path be relative and not
// escape the execution root, except a single leading "../" which denotes a
// sibling repository.
func verifyIncludeDirPath(p string) error {
	pf := NewPathFragment(p)
	if len(p) > 0 && p[0] == '/' {
		return &InvalidIncludePathError{Path: p}
	}
	segs := pf.Segments()
	depth := 0
	siblingUsed := false
	for _, seg := range segs {
		if seg == ".." {
			if depth == 0 {
				if siblingUsed {
					return &InvalidIncludePathError{Path: p}
				}
				siblingUsed = true
				continue
			}
			depth--
			continue
		}
		depth++
	}
	return nil
}

// VerifyActionIncludePaths runs verifyIncludeDirPath over every include
// search path and every "-include"-style cmdline include.
func VerifyActionIncludePaths(paths []string) error {
	for _, p := range paths {
		if err := verifyIncludeDirPath(p); err != nil {
			return err
		}
	}
	return nil
}

// IncludeScanningHeaderData is the view the include scanner is handed: the
// union of declared include srcs/dirs augmented with system-include dirs
// and cmdline-includes discovered on the argv.
type IncludeScanningHeaderData struct {
	DeclaredIncludeSrcs []Artifact
	DeclaredIncludeDirs []PathFragment
	SystemIncludeDirs   []PathFragment
	CmdlineIncludes     []string
}

func newIncludeScanningHeaderData(cc *CcCompilationContext, systemDirs []PathFragment, cmdlineIncludes []string) IncludeScanningHeaderData {
	return IncludeScanningHeaderData{
		DeclaredIncludeSrcs: cc.DeclaredIncludeSrcs,
		DeclaredIncludeDirs: cc.DeclaredIncludeDirs,
		SystemIncludeDirs:   systemDirs,
		CmdlineIncludes:     cmdlineIncludes,
	}
}

// extractSystemIncludeDirs pulls "-isystem <dir>" and "-I<dir>"/"-I <dir>"
// style system/search paths out of an argv.
func extractSystemIncludeDirs(argv []string) []string {
	var dirs []string
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "-isystem" && i+1 < len(argv):
			dirs = append(dirs, argv[i+1])
			i++
		case len(a) > len("-isystem") && a[:len("-isystem")] == "-isystem":
			dirs = append(dirs, a[len("-isystem"):])
		case a == "-I" && i+1 < len(argv):
			dirs = append(dirs, argv[i+1])
			i++
		case len(a) > 2 && a[:2] == "-I":
			dirs = append(dirs, a[2:])
		}
	}
	return dirs
}

// extractCmdlineIncludes pulls "-include <file>" forced-include directives
// out of an argv.
func extractCmdlineIncludes(argv []string) []string {
	var incs []string
	for i := 0; i < len(argv); i++ {
		if argv[i] == "-include" && i+1 < len(argv) {
			incs = append(incs, argv[i+1])
			i++
		}
	}
	return incs
}
