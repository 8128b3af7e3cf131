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

// HeadersCheckingMode controls how aggressively strict-deps validation runs.
type HeadersCheckingMode int

const (
	HeadersCheckingOff HeadersCheckingMode = iota
	HeadersCheckingLoose
	HeadersCheckingStrict
)

// ModuleID names a header module by the path of its .pcm artifact.
type ModuleID string

// CcCompilationContext is the declared, statically-known envelope of what a
// translation unit is allowed to see.
type CcCompilationContext struct {
	DeclaredIncludeSrcs []Artifact
	// DeclaredIncludeDirs may contain a "**" suffix meaning "and all
	// subdirectories".
	DeclaredIncludeDirs []PathFragment

	QuoteIncludeDirs  []PathFragment
	IncludeDirs       []PathFragment
	SystemIncludeDirs []PathFragment

	// TransitiveModules maps use_pic to the set of .pcm artifacts reachable
	// from this context's dependencies.
	TransitiveModules map[bool][]Artifact

	// HeaderModuleSrcs are the headers covered by this context's module map,
	// when this context describes a module-map compile.
	HeaderModuleSrcs []Artifact

	// HeaderToModule maps a header's exec path to the module that provides
	// it, the precomputed mapping the module-graph resolver consults to
	// derive a translation unit's used modules.
	HeaderToModule map[string]ModuleID

	HeadersCheckingMode HeadersCheckingMode
}

// declaredIncludeDirsAccept reports whether dir is accepted by d verbatim or
// via a "**" (recursive) declared dir.
func declaredIncludeDirsAccept(dir PathFragment, declared []PathFragment) bool {
	for _, d := range declared {
		ds := d.String()
		if ds == dir.String() {
			return true
		}
		if rec, ok := cutDeclaredRecursiveSuffix(ds); ok {
			if dir.HasPrefix(NewPathFragment(rec)) || rec == "" {
				return true
			}
		}
	}
	return false
}

// cutDeclaredRecursiveSuffix splits "X/**" into ("X", true); any other
// shape returns ("", false).
func cutDeclaredRecursiveSuffix(s string) (string, bool) {
	const suffix = "/**"
	if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)], true
	}
	if s == "**" {
		return "", true
	}
	return "", false
}
