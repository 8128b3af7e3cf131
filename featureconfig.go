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

// FeatureSet is the toolchain feature-configuration collaborator: a flat
// set of boolean capability queries the compile action consults to decide
// which optional behaviors apply. No configuration library is imported here
// by design: only cmd/ccompile talks to viper/yaml, so the core stays a
// plain struct.
type FeatureSet struct {
	// ParseShowIncludes enables Windows-style "/showIncludes" stdout
	// parsing of the dependency output instead of .d parsing.
	ParseShowIncludes bool

	// HeaderModules enables compiling against precompiled header modules.
	HeaderModules bool

	// ModulePruning enables computing top_level_modules/discovered_modules
	// via the module-graph resolver. Requires HeaderModules and
	// IncludeScanning; see ShouldPruneModules.
	ModulePruning bool

	// LayeringCheck enables rejecting headers transitively included but not
	// part of a directly-depended-on layer. Consulted by callers of
	// ValidateInclusions; this package does not special-case it beyond
	// exposing the flag.
	LayeringCheck bool

	// StrictSystemIncludes narrows the strict-deps validator's ignored-dirs
	// set to only the toolchain's built-in include directories, dropping
	// the context's own SystemIncludeDirs from that set.
	StrictSystemIncludes bool

	// ValidationDebugWarn is an opt-in diagnostic: when true, strictdeps.go
	// logs every accept/reject decision made while walking declared include
	// dirs. Purely additive; never changes the validation result.
	ValidationDebugWarn bool

	// IncludeValidation enables the argv include-path safety check in
	// DiscoverInputs.
	IncludeValidation bool

	// IncludeScanning enables the pre-execution lexical scan of the source
	// for #include/import targets. When false, DiscoverInputs falls back to
	// the full declared envelope as a conservative superset.
	IncludeScanning bool

	// DotdScanning enables parsing compiler-emitted dependency output
	// (.d file or in-memory reply) after execution and validating against
	// it. When false, this is a pure module build with no post-execution
	// dependency pass.
	DotdScanning bool
}

// ShouldPruneModules reports whether module pruning is active. Pruning
// requires both HeaderModules and IncludeScanning: without a pre-execution
// scan there is no discovered header set to map back to used modules, so
// ModulePruning alone never activates pruning.
func (f FeatureSet) ShouldPruneModules() bool {
	return f.HeaderModules && f.ModulePruning && f.IncludeScanning
}
